package sources

import "CrisisMonitor/internal/domain"

// Defaults is the built-in feed table used when the config lists no sources.
func Defaults() []Source {
	return []Source{
		{Name: "Human Rights Watch", URL: "https://www.hrw.org/rss", Tier: domain.TierNGOUN, Weight: 0.95, CategoryHint: domain.CategoryHumanRights},
		{Name: "Amnesty International", URL: "https://www.amnesty.org/en/rss/", Tier: domain.TierNGOUN, Weight: 0.95, CategoryHint: domain.CategoryHumanRights},
		{Name: "UN OCHA", URL: "https://www.unocha.org/rss.xml", Tier: domain.TierNGOUN, Weight: 0.95, CategoryHint: domain.CategoryHumanitarian},
		{Name: "ReliefWeb", URL: "https://reliefweb.int/updates/rss.xml", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryHumanitarian},
		{Name: "Doctors Without Borders (MSF)", URL: "https://www.msf.org/rss.xml", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryHealth},
		{Name: "UNHCR", URL: "https://www.unhcr.org/rssfeed/rss.xml", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryHumanitarian},
		{Name: "International Crisis Group", URL: "https://www.crisisgroup.org/rss.xml", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryPolitical},
		{Name: "ICRC", URL: "https://www.icrc.org/en/rss-feeds", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryHumanitarian},
		{Name: "GDACS", URL: "https://www.gdacs.org/xml/rss.xml", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryNatural},
		{Name: "USGS Significant Earthquakes", URL: "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_week.atom", Tier: domain.TierNGOUN, Weight: 0.9, CategoryHint: domain.CategoryNatural},
		{Name: "Radio Free Asia", URL: "https://www.rfa.org/english/RSS", Tier: domain.TierRegionalIndependent, Weight: 0.85, CategoryHint: domain.CategoryHumanRights},
		{Name: "Middle East Eye", URL: "https://www.middleeasteye.net/rss", Tier: domain.TierRegionalIndependent, Weight: 0.8},
		{Name: "Al Jazeera English", URL: "https://www.aljazeera.com/xml/rss/all.xml", Tier: domain.TierRegionalIndependent, Weight: 0.8},
		{Name: "BBC World", URL: "http://feeds.bbci.co.uk/news/world/rss.xml", Tier: domain.TierMainstream},
		{Name: "The Guardian World", URL: "https://www.theguardian.com/world/rss", Tier: domain.TierMainstream},
	}
}
