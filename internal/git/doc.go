// Package git reports the source revision a build was produced from. The
// revision is recorded in the build manifest so an emitted site can be traced
// back to the commit of the tree that built it.
package git
