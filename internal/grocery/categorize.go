package grocery

import (
	"regexp"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
)

var quantitySuffix = regexp.MustCompile(`\s*\(\d+ adet\)$`)

// Categorize returns the product category for the given item name.
// It performs case-insensitive matching: exact match first, then substring
// match. A trailing quantity suffix such as "(2 adet)" is ignored.
// Falls back to Other if no match is found.
func Categorize(itemName string) model.Category {
	name := strings.ToLower(strings.TrimSpace(itemName))
	name = quantitySuffix.ReplaceAllString(name, "")
	if name == "" {
		return model.CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if entry.pattern.MatchString(name) {
			return entry.category
		}
	}

	return model.CategoryOther
}

var keywords = map[model.Category][]string{
	model.CategoryFood: {
		"apple", "apples", "banana", "bananas", "orange", "oranges", "lemon", "lemons",
		"tomato", "tomatoes", "potato", "potatoes", "onion", "onions", "garlic",
		"lettuce", "spinach", "carrots", "cucumber", "peppers", "mushrooms",
		"grapes", "strawberries", "watermelon",
		"milk", "eggs", "butter", "cheese", "yogurt", "cream",
		"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham", "steak",
		"salmon", "shrimp", "tuna", "fish", "lamb",
		"bread", "bagels", "tortillas", "rolls", "buns", "croissants",
		"rice", "pasta", "flour", "sugar", "salt", "oil", "olive oil", "vinegar",
		"ketchup", "mustard", "mayonnaise", "honey", "peanut butter", "cereal",
		"oatmeal", "beans", "lentils", "chips", "crackers", "cookies", "chocolate",
		"nuts", "popcorn", "ice cream", "frozen pizza",
		"ekmek", "süt", "peynir", "yumurta", "domates", "pirinç", "makarna",
	},
	model.CategoryBeverage: {
		"water", "sparkling water", "juice", "orange juice", "apple juice", "soda",
		"coffee", "tea", "beer", "wine", "kombucha", "lemonade", "energy drink",
		"su", "çay", "kahve", "ayran", "meyve suyu",
	},
	model.CategoryCleaning: {
		"paper towels", "trash bags", "dish soap", "detergent", "laundry detergent",
		"bleach", "sponges", "aluminum foil", "plastic wrap", "cleaner",
		"all purpose cleaner", "fabric softener", "dishwasher tablets",
		"deterjan", "çamaşır suyu", "sünger",
	},
	model.CategoryPersonalCare: {
		"shampoo", "conditioner", "soap", "body wash", "toothpaste", "toothbrush",
		"deodorant", "lotion", "sunscreen", "razors", "floss", "toilet paper",
		"tissues", "cotton swabs",
		"şampuan", "diş macunu", "sabun",
	},
	model.CategoryElectronics: {
		"batteries", "charger", "usb cable", "headphones", "earbuds", "light bulbs",
		"phone case", "power bank", "hdmi cable", "mouse", "keyboard",
		"pil", "şarj aleti", "kulaklık",
	},
	model.CategoryClothing: {
		"socks", "t-shirt", "shirt", "underwear", "jeans", "pants", "jacket",
		"gloves", "scarf", "hat", "shoes", "sneakers",
		"çorap", "gömlek", "ayakkabı",
	},
	model.CategoryBabyKids: {
		"diapers", "baby wipes", "wipes", "formula", "baby food", "pacifier",
		"baby shampoo", "sippy cup",
		"bebek bezi", "mama", "emzik",
	},
	model.CategoryPet: {
		"dog food", "cat food", "cat litter", "kitty litter", "dog treats",
		"cat treats", "pet food", "flea treatment",
		"kedi maması", "köpek maması", "kum",
	},
}

var exactMatch = func() map[string]model.Category {
	m := make(map[string]model.Category)
	for cat, words := range keywords {
		for _, w := range words {
			m[w] = cat
		}
	}
	return m
}()

type substringEntry struct {
	keyword  string
	category model.Category
	pattern  *regexp.Regexp
}

// wordPattern matches keyword as whole words, allowing a plural "s" or "es",
// so "tea" does not fire inside "steak" and "shoe" not inside "shoestring".
func wordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(keyword) + `(?:e?s)?(?:$|[^\p{L}\p{N}])`)
}

// Ordered longer/more-specific first so "baby shampoo" is not Personal Care
// and "dog food" is not Food.
var substringMatches = func() []substringEntry {
	for i := range substringKeywords {
		substringKeywords[i].pattern = wordPattern(substringKeywords[i].keyword)
	}
	return substringKeywords
}()

var substringKeywords = []substringEntry{
	{keyword: "baby shampoo", category: model.CategoryBabyKids},
	{keyword: "baby food", category: model.CategoryBabyKids},
	{keyword: "baby wipes", category: model.CategoryBabyKids},
	{keyword: "diaper", category: model.CategoryBabyKids},
	{keyword: "dog food", category: model.CategoryPet},
	{keyword: "cat food", category: model.CategoryPet},
	{keyword: "cat litter", category: model.CategoryPet},
	{keyword: "treats", category: model.CategoryPet},
	{keyword: "dish soap", category: model.CategoryCleaning},
	{keyword: "detergent", category: model.CategoryCleaning},
	{keyword: "cleaner", category: model.CategoryCleaning},
	{keyword: "paper towel", category: model.CategoryCleaning},
	{keyword: "trash bag", category: model.CategoryCleaning},
	{keyword: "toothpaste", category: model.CategoryPersonalCare},
	{keyword: "shampoo", category: model.CategoryPersonalCare},
	{keyword: "body wash", category: model.CategoryPersonalCare},
	{keyword: "deodorant", category: model.CategoryPersonalCare},
	{keyword: "toilet paper", category: model.CategoryPersonalCare},
	{keyword: "cable", category: model.CategoryElectronics},
	{keyword: "charger", category: model.CategoryElectronics},
	{keyword: "battery", category: model.CategoryElectronics},
	{keyword: "batteries", category: model.CategoryElectronics},
	{keyword: "headphone", category: model.CategoryElectronics},
	{keyword: "bulb", category: model.CategoryElectronics},
	{keyword: "sock", category: model.CategoryClothing},
	{keyword: "shirt", category: model.CategoryClothing},
	{keyword: "jacket", category: model.CategoryClothing},
	{keyword: "shoe", category: model.CategoryClothing},
	{keyword: "juice", category: model.CategoryBeverage},
	{keyword: "coffee", category: model.CategoryBeverage},
	{keyword: "water", category: model.CategoryBeverage},
	{keyword: "soda", category: model.CategoryBeverage},
	{keyword: "tea", category: model.CategoryBeverage},
	{keyword: "wine", category: model.CategoryBeverage},
	{keyword: "beer", category: model.CategoryBeverage},
	{keyword: "chicken", category: model.CategoryFood},
	{keyword: "beef", category: model.CategoryFood},
	{keyword: "cheese", category: model.CategoryFood},
	{keyword: "yogurt", category: model.CategoryFood},
	{keyword: "milk", category: model.CategoryFood},
	{keyword: "bread", category: model.CategoryFood},
	{keyword: "pasta", category: model.CategoryFood},
	{keyword: "rice", category: model.CategoryFood},
	{keyword: "beans", category: model.CategoryFood},
	{keyword: "frozen", category: model.CategoryFood},
	{keyword: "chips", category: model.CategoryFood},
	{keyword: "fries", category: model.CategoryFood},
	{keyword: "pancake", category: model.CategoryFood},
	{keyword: "batter", category: model.CategoryFood},
}
