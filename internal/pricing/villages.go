package pricing

// villageCosts maps a destination village to its base shipping cost.
var villageCosts = map[string]int64{
	"Ambeng-ambeng Watangrejo": 10000,
	"Bendungan":                11000,
	"Duduksampeyan":            5000,
	"Glanggang":                8000,
	"Gredek":                   10000,
	"Kandangan":                8000,
	"Kawistowindu":             8000,
	"Kemudi":                   8000,
	"Kramat Kulon":             10000,
	"Palebon":                  8000,
	"Pandanan":                 10000,
	"Panjunan":                 10000,
	"Petisbenem":               5000,
	"Samirplapan":              6000,
	"Setrohadi":                5000,
	"Sumari":                   8000,
	"Sumengko":                 5000,
	"Tambakrejo":               10000,
	"Tebaloan":                 8000,
	"Tirem":                    10000,
	"Tumapel":                  8000,
	"Wadak Kidul":              10000,
	"Wadak Lor":                10000,
}

// VillageCost returns the base shipping cost for a village, or
// DefaultVillageCost when the destination is unrecognized.
func VillageCost(village string) int64 {
	if cost, ok := villageCosts[village]; ok {
		return cost
	}
	return DefaultVillageCost
}
