package hexgame

import (
	"fmt"
	"time"
)

var nameAdjectives = []string{
	"Adventurous", "Bouncy", "Cheeky", "Daring", "Eccentric", "Feisty", "Giggly",
	"Hilarious", "Jacked", "Kooky", "Loopy", "Mischievous", "Nifty", "Outrageous",
	"Perky", "Quirky", "Rowdy", "Sassy", "Tricky", "Unstoppable", "Vivacious",
	"Wacky", "Zany", "Zippy", "Blissful", "Crafty", "Dapper", "Enthusiastic",
	"Fantastic", "Giddy", "Humorous", "Jazzy", "Kinetic", "Lively", "Musical",
	"Nutty", "Playful", "Rambunctious", "Spunky", "Ticklish", "Unique", "Whimsical",
	"Zestful", "Boisterous", "Crazy", "Dizzy", "Eager", "Fun-loving", "Groovy", "Hyper",
}

var nameNouns = []string{
	"Armadillo", "Butterfly", "Cheetah", "Dodo", "Elephant", "Flamingo", "Giraffe",
	"Hedgehog", "Iguana", "Jaguar", "Kangaroo", "Lemur", "Meerkat", "Narwhal",
	"Octopus", "Penguin", "Quokka", "Raccoon", "Sloth", "Tortoise", "Unicorn",
	"Vulture", "Walrus", "Yak", "Zebra", "Aardvark", "Beaver", "Chameleon", "Dolphin",
	"Emu", "Ferret", "Gorilla", "Hyena", "Macaw", "Newt", "Ocelot", "Parrot",
	"Quail", "Rhino", "Salamander", "Tapir", "Urchin", "Viper", "Wombat", "Yeti", "Zebu",
	"Alpaca", "Bison", "Caribou",
}

// Names are padded to gameNameWidth so listings line up.
const gameNameWidth = 22

// GenerateGameName returns a name like "Zany Walrus            - 2024-05-01_1730".
func GenerateGameName(now time.Time, rng Random) string {
	adj := nameAdjectives[pick(rng, len(nameAdjectives))]
	noun := nameNouns[pick(rng, len(nameNouns))]
	return fmt.Sprintf("%-*s - %s", gameNameWidth, adj+" "+noun, now.Format("2006-01-02_1504"))
}
