package geo

import "strings"

// Country is a representative point used when drawing a country on the map.
type Country struct {
	ISO2 string
	Name string
	Lat  float64
	Lon  float64
}

var countries = []Country{
	{"AF", "Afghanistan", 33.93, 67.71},
	{"AM", "Armenia", 40.07, 45.04},
	{"AZ", "Azerbaijan", 40.14, 47.58},
	{"BD", "Bangladesh", 23.68, 90.36},
	{"BF", "Burkina Faso", 12.24, -1.56},
	{"BI", "Burundi", -3.37, 29.92},
	{"BR", "Brazil", -14.24, -51.93},
	{"BY", "Belarus", 53.71, 27.95},
	{"CD", "Democratic Republic of the Congo", -4.04, 21.76},
	{"CF", "Central African Republic", 6.61, 20.94},
	{"CM", "Cameroon", 7.37, 12.35},
	{"CN", "China", 35.86, 104.19},
	{"CO", "Colombia", 4.57, -74.30},
	{"CU", "Cuba", 21.52, -77.78},
	{"EG", "Egypt", 26.82, 30.80},
	{"ER", "Eritrea", 15.18, 39.78},
	{"ET", "Ethiopia", 9.15, 40.49},
	{"FR", "France", 46.23, 2.21},
	{"GB", "United Kingdom", 55.38, -3.44},
	{"GE", "Georgia", 42.32, 43.36},
	{"GT", "Guatemala", 15.78, -90.23},
	{"HN", "Honduras", 15.20, -86.24},
	{"HT", "Haiti", 18.97, -72.29},
	{"ID", "Indonesia", -0.79, 113.92},
	{"IL", "Israel", 31.05, 34.85},
	{"IN", "India", 20.59, 78.96},
	{"IQ", "Iraq", 33.22, 43.68},
	{"IR", "Iran", 32.43, 53.69},
	{"JO", "Jordan", 30.59, 36.24},
	{"JP", "Japan", 36.20, 138.25},
	{"KE", "Kenya", -0.02, 37.91},
	{"KP", "North Korea", 40.34, 127.51},
	{"LB", "Lebanon", 33.85, 35.86},
	{"LY", "Libya", 26.34, 17.23},
	{"MA", "Morocco", 31.79, -7.09},
	{"ML", "Mali", 17.57, -4.00},
	{"MM", "Myanmar", 21.91, 95.96},
	{"MX", "Mexico", 23.63, -102.55},
	{"MZ", "Mozambique", -18.67, 35.53},
	{"NE", "Niger", 17.61, 8.08},
	{"NG", "Nigeria", 9.08, 8.68},
	{"NI", "Nicaragua", 12.87, -85.21},
	{"NP", "Nepal", 28.39, 84.12},
	{"PH", "Philippines", 12.88, 121.77},
	{"PK", "Pakistan", 30.38, 69.35},
	{"PS", "Palestine", 31.95, 35.23},
	{"RU", "Russia", 61.52, 105.32},
	{"RW", "Rwanda", -1.94, 29.87},
	{"SA", "Saudi Arabia", 23.89, 45.08},
	{"SD", "Sudan", 12.86, 30.22},
	{"SO", "Somalia", 5.15, 46.20},
	{"SS", "South Sudan", 6.88, 31.31},
	{"SV", "El Salvador", 13.79, -88.90},
	{"SY", "Syria", 34.80, 38.99},
	{"TD", "Chad", 15.45, 18.73},
	{"TR", "Turkey", 38.96, 35.24},
	{"TZ", "Tanzania", -6.37, 34.89},
	{"UA", "Ukraine", 48.38, 31.17},
	{"UG", "Uganda", 1.37, 32.29},
	{"US", "United States", 37.09, -95.71},
	{"VE", "Venezuela", 6.42, -66.59},
	{"YE", "Yemen", 15.55, 48.52},
	{"ZA", "South Africa", -30.56, 22.94},
	{"ZW", "Zimbabwe", -19.02, 29.15},
}

var (
	byISO2 = map[string]Country{}
	byName = map[string]Country{}
)

func init() {
	for _, c := range countries {
		byISO2[c.ISO2] = c
		byName[strings.ToLower(c.Name)] = c
	}
}

// CountryByISO2 looks up the built-in country table.
func CountryByISO2(iso2 string) (Country, bool) {
	c, ok := byISO2[strings.ToUpper(strings.TrimSpace(iso2))]
	return c, ok
}

// CountryByName matches an English country name case-insensitively.
func CountryByName(name string) (Country, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}
