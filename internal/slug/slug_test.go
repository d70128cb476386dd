package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Vanguard Total Stock Market", "vanguard-total-stock-market"},
		{"  Growth & Income  Fund ", "growth-income-fund"},
		{"Société Générale Équité", "societe-generale-equite"},
		{"ESG---Leaders", "esg-leaders"},
		{"S&P 500 Index", "s-p-500-index"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Make(c.in), "input %q", c.in)
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	for _, in := range []string{"Émerging Markets Ex-China", "Fund #2 (Class A)"} {
		once := Make(in)
		assert.Equal(t, once, Make(once))
	}
}
