// Package validation holds the post-build validators: HTML structure,
// canonical consistency between sitemap and pages, sitemap URL shape, and
// critical output files. Validators return issues and never decide whether
// the build fails.
package validation
