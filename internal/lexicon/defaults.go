package lexicon

import "CrisisMonitor/internal/domain"

// DefaultKeywords returns a fresh copy of the built-in category term lists.
func DefaultKeywords() map[domain.Category][]string {
	return map[domain.Category][]string{
		domain.CategoryNatural: {
			"earthquake", "quake", "seismic", "tsunami",
			"flood", "hurricane", "typhoon", "cyclone",
			"wildfire", "blaze", "volcano", "volcanic", "eruption",
			"landslide", "mudslide", "avalanche", "drought",
			"storm", "tornado", "heatwave", "cold snap",
		},
		domain.CategoryPolitical: {
			"war", "conflict", "fighting", "battle", "combat",
			"military", "troops", "invasion", "occupation",
			"coup", "regime", "civil war", "insurgency",
			"rebel", "armed conflict", "airstrike", "bombing",
			"missile", "artillery", "ceasefire", "peace talks",
		},
		domain.CategoryHumanRights: {
			"genocide", "ethnic cleansing", "persecution",
			"torture", "extrajudicial", "disappearance",
			"arbitrary detention", "mass detention", "detention", "concentration camp",
			"forced labor", "slavery", "human trafficking",
			"apartheid", "discrimination", "oppression",
			"atrocities", "war crimes", "crimes against humanity",
			"crackdown", "repression", "human rights",
		},
		domain.CategoryHumanitarian: {
			"refugee", "displaced", "internally displaced", "idp",
			"humanitarian crisis", "famine", "starvation", "malnutrition",
			"hunger", "food insecurity", "aid",
			"humanitarian aid", "emergency response", "evacuation",
			"shelter", "asylum", "migration crisis",
		},
		domain.CategoryHealth: {
			"outbreak", "epidemic", "pandemic", "disease",
			"virus", "infection", "contagious", "cholera",
			"ebola", "measles", "malaria", "tuberculosis",
			"polio", "covid", "coronavirus", "health crisis",
			"medical emergency", "healthcare collapse", "mpox",
		},
		domain.CategoryEconomic: {
			"economic crisis", "recession", "depression",
			"inflation", "hyperinflation", "unemployment", "poverty",
			"financial crisis", "debt crisis", "bankruptcy",
			"economic collapse", "market crash", "currency",
		},
		domain.CategoryEnvironmental: {
			"climate crisis", "global warming", "climate change",
			"pollution", "deforestation", "biodiversity",
			"extinction", "environmental disaster", "toxic",
			"chemical spill", "oil spill", "contamination",
		},
	}
}

// DefaultZones returns the built-in crisis-zone table. Order matters for
// equal-length alias ties.
func DefaultZones() []Zone {
	return []Zone{
		{Name: "Xinjiang", Aliases: []string{"xinjiang", "uyghur", "uighur"}, Category: domain.CategoryHumanRights, Confidence: 0.85, Country: "China", ISO2: "CN", Lat: 41.1129, Lon: 85.2401},
		{Name: "Rakhine", Aliases: []string{"rohingya", "rakhine"}, Category: domain.CategoryHumanRights, Confidence: 0.85, Country: "Myanmar", ISO2: "MM", Lat: 20.1041, Lon: 93.5813},
		{Name: "Myanmar", Aliases: []string{"myanmar", "burma"}, Category: domain.CategoryHumanRights, Confidence: 0.8, Country: "Myanmar", ISO2: "MM", Lat: 21.9162, Lon: 95.956},
		{Name: "Darfur", Aliases: []string{"darfur"}, Category: domain.CategoryHumanRights, Confidence: 0.85, Country: "Sudan", ISO2: "SD", Lat: 13.4, Lon: 23.8},
		{Name: "El Salvador", Aliases: []string{"el salvador"}, Category: domain.CategoryHumanRights, Confidence: 0.75, Country: "El Salvador", ISO2: "SV", Lat: 13.7942, Lon: -88.8965},
		{Name: "West Papua", Aliases: []string{"west papua"}, Category: domain.CategoryHumanRights, Confidence: 0.8, Country: "Indonesia", ISO2: "ID", Lat: -1.3361, Lon: 133.1747},
		{Name: "Gaza", Aliases: []string{"gaza"}, Category: domain.CategoryPolitical, Confidence: 0.85, Country: "Palestine", ISO2: "PS", Lat: 31.3547, Lon: 34.3088},
		{Name: "West Bank", Aliases: []string{"west bank", "palestine", "palestinian"}, Category: domain.CategoryPolitical, Confidence: 0.8, Country: "Palestine", ISO2: "PS", Lat: 31.9522, Lon: 35.2332},
		{Name: "Nagorno-Karabakh", Aliases: []string{"nagorno-karabakh", "karabakh"}, Category: domain.CategoryPolitical, Confidence: 0.8, Country: "Azerbaijan", ISO2: "AZ", Lat: 39.8265, Lon: 46.7656},
		{Name: "Ukraine", Aliases: []string{"ukraine", "ukrainian"}, Category: domain.CategoryPolitical, Confidence: 0.8, Country: "Ukraine", ISO2: "UA", Lat: 50.4501, Lon: 30.5234},
		{Name: "Syria", Aliases: []string{"syria"}, Category: domain.CategoryPolitical, Confidence: 0.8, Country: "Syria", ISO2: "SY", Lat: 33.5138, Lon: 36.2765},
		{Name: "Tigray", Aliases: []string{"tigray"}, Category: domain.CategoryHumanitarian, Confidence: 0.85, Country: "Ethiopia", ISO2: "ET", Lat: 14.0323, Lon: 38.3166},
		{Name: "Yemen", Aliases: []string{"yemen"}, Category: domain.CategoryHumanitarian, Confidence: 0.85, Country: "Yemen", ISO2: "YE", Lat: 15.5527, Lon: 48.5164},
		{Name: "Afghanistan", Aliases: []string{"afghanistan", "afghan"}, Category: domain.CategoryHumanitarian, Confidence: 0.8, Country: "Afghanistan", ISO2: "AF", Lat: 33.9391, Lon: 67.71},
		{Name: "Somalia", Aliases: []string{"somalia"}, Category: domain.CategoryHumanitarian, Confidence: 0.8, Country: "Somalia", ISO2: "SO", Lat: 5.1521, Lon: 46.1996},
		{Name: "South Sudan", Aliases: []string{"south sudan"}, Category: domain.CategoryHumanitarian, Confidence: 0.85, Country: "South Sudan", ISO2: "SS", Lat: 6.877, Lon: 31.307},
		{Name: "Sudan", Aliases: []string{"sudan"}, Category: domain.CategoryHumanitarian, Confidence: 0.8, Country: "Sudan", ISO2: "SD", Lat: 15.5007, Lon: 32.5599},
		{Name: "Haiti", Aliases: []string{"haiti"}, Category: domain.CategoryHumanitarian, Confidence: 0.8, Country: "Haiti", ISO2: "HT", Lat: 18.5944, Lon: -72.3074},
	}
}
