package keywords

// Niche is a coarse content category from a fixed taxonomy.
type Niche string

const (
	NicheGaming       Niche = "gaming"
	NicheMusic        Niche = "music"
	NicheComedy       Niche = "comedy"
	NicheEducation    Niche = "education"
	NicheTech         Niche = "tech"
	NicheBeauty       Niche = "beauty"
	NicheFitness      Niche = "fitness"
	NicheFood         Niche = "food"
	NicheFinance      Niche = "finance"
	NicheSports       Niche = "sports"
	NicheTravel       Niche = "travel"
	NicheAnimals      Niche = "animals"
	NicheDIY          Niche = "diy"
	NicheUnclassified Niche = "unclassified"
)

// Minimum evidence for a niche to be assigned.
const (
	MinNicheHits  = 2
	MinNicheShare = 0.4
)

// Taxonomy lists the classifiable niches in tie-break order.
var Taxonomy = []Niche{
	NicheGaming, NicheMusic, NicheComedy, NicheEducation, NicheTech, NicheBeauty,
	NicheFitness, NicheFood, NicheFinance, NicheSports, NicheTravel, NicheAnimals, NicheDIY,
}

var lexicon = map[Niche][]string{
	NicheGaming: {
		"gaming", "gamer", "game", "games", "gameplay", "minecraft", "fortnite", "roblox",
		"valorant", "speedrun", "esports", "playthrough", "gta", "pokemon", "console", "twitch",
	},
	NicheMusic: {
		"music", "song", "songs", "cover", "remix", "singing", "singer", "guitar", "piano",
		"beat", "beats", "rap", "drum", "drums", "lyrics", "album", "producer", "dance",
	},
	NicheComedy: {
		"funny", "comedy", "prank", "pranks", "meme", "memes", "skit", "skits", "joke",
		"jokes", "lol", "humor", "parody", "standup", "fails",
	},
	NicheEducation: {
		"learn", "learning", "science", "history", "facts", "explained", "education",
		"math", "physics", "chemistry", "biology", "tutorial", "lesson", "study", "teacher",
	},
	NicheTech: {
		"tech", "technology", "iphone", "android", "gadget", "gadgets", "coding", "programming",
		"software", "computer", "unboxing", "review", "apple", "samsung", "laptop", "smartphone",
	},
	NicheBeauty: {
		"makeup", "beauty", "skincare", "hair", "hairstyle", "nails", "fashion", "outfit",
		"outfits", "grwm", "cosmetics", "lipstick", "style",
	},
	NicheFitness: {
		"fitness", "workout", "gym", "exercise", "yoga", "training", "bodybuilding", "muscle",
		"cardio", "calisthenics", "weightloss", "abs", "running",
	},
	NicheFood: {
		"food", "recipe", "recipes", "cooking", "cook", "baking", "kitchen", "chef", "eating",
		"mukbang", "foodie", "dessert", "snack", "asmr",
	},
	NicheFinance: {
		"money", "finance", "investing", "stocks", "crypto", "bitcoin", "trading", "business",
		"entrepreneur", "wealth", "budget", "income", "passive",
	},
	NicheSports: {
		"football", "soccer", "basketball", "nba", "nfl", "sports", "goal", "goals", "skills",
		"tennis", "boxing", "ufc", "mma", "cricket", "baseball", "skateboarding",
	},
	NicheTravel: {
		"travel", "trip", "vlog", "adventure", "explore", "tour", "country", "city",
		"hiking", "camping", "beach", "backpacking",
	},
	NicheAnimals: {
		"dog", "dogs", "cat", "cats", "puppy", "kitten", "pet", "pets", "animal", "animals",
		"wildlife", "bird", "birds", "horse",
	},
	NicheDIY: {
		"diy", "craft", "crafts", "woodworking", "build", "building", "hack", "hacks",
		"lifehack", "repair", "restoration", "handmade", "art", "drawing", "painting",
	},
}

var wordNiche = buildIndex()

func buildIndex() map[string]Niche {
	index := make(map[string]Niche)
	// First niche in taxonomy order wins a word listed twice.
	for _, n := range Taxonomy {
		for _, w := range lexicon[n] {
			if _, taken := index[w]; !taken {
				index[w] = n
			}
		}
	}
	return index
}

// Classify picks the niche with the most lexicon hits among tokens. The winner
// needs at least MinNicheHits hits and MinNicheShare of all hits, otherwise
// the result is NicheUnclassified. Ties go to the earlier taxonomy entry.
func Classify(tokens []string) Niche {
	hits := make(map[Niche]int)
	total := 0
	for _, tok := range tokens {
		if n, ok := wordNiche[tok]; ok {
			hits[n]++
			total++
		}
	}
	if total == 0 {
		return NicheUnclassified
	}

	best, bestHits := NicheUnclassified, 0
	for _, n := range Taxonomy {
		if hits[n] > bestHits {
			best, bestHits = n, hits[n]
		}
	}

	if bestHits < MinNicheHits || float64(bestHits)/float64(total) < MinNicheShare {
		return NicheUnclassified
	}
	return best
}
