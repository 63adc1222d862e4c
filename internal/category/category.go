package category

import "sort"

// Category describes one tournament category.
type Category struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// registry is the canonical category set. Keys are stable identifiers
// persisted in the tournament_images.category column.
var registry = map[string]Category{
	"cores": {
		Key:         "cores",
		DisplayName: "Cores",
		Color:       "#FF6B6B",
		Icon:        "palette",
		Description: "Paletas e combinações de cores",
	},
	"estilos": {
		Key:         "estilos",
		DisplayName: "Estilos",
		Color:       "#4ECDC4",
		Icon:        "dress",
		Description: "Estilos de moda e vestimenta",
	},
	"calcados": {
		Key:         "calcados",
		DisplayName: "Calçados",
		Color:       "#45B7D1",
		Icon:        "shoe",
		Description: "Sapatos, tênis e calçados em geral",
	},
	"acessorios": {
		Key:         "acessorios",
		DisplayName: "Acessórios",
		Color:       "#96CEB4",
		Icon:        "ring",
		Description: "Bolsas, joias e acessórios",
	},
	"texturas": {
		Key:         "texturas",
		DisplayName: "Texturas",
		Color:       "#FECA57",
		Icon:        "thread",
		Description: "Texturas e padrões de tecidos",
	},
	"roupas_casuais": {
		Key:         "roupas_casuais",
		DisplayName: "Roupas Casuais",
		Color:       "#FF9FF3",
		Icon:        "shirt",
		Description: "Roupas para o dia a dia",
	},
	"roupas_formais": {
		Key:         "roupas_formais",
		DisplayName: "Roupas Formais",
		Color:       "#54A0FF",
		Icon:        "suit",
		Description: "Roupas para ocasiões formais",
	},
	"roupas_festa": {
		Key:         "roupas_festa",
		DisplayName: "Roupas de Festa",
		Color:       "#5F27CD",
		Icon:        "party",
		Description: "Roupas para festas e celebrações",
	},
	"joias": {
		Key:         "joias",
		DisplayName: "Joias",
		Color:       "#FFD700",
		Icon:        "gem",
		Description: "Joias e bijuterias",
	},
	"bolsas": {
		Key:         "bolsas",
		DisplayName: "Bolsas",
		Color:       "#FF6348",
		Icon:        "bag",
		Description: "Bolsas, mochilas e carteiras",
	},
}

// Get returns the category for key, and whether it is known.
func Get(key string) (Category, bool) {
	c, ok := registry[key]
	return c, ok
}

// IsKnown reports whether key is a registered category.
func IsKnown(key string) bool {
	_, ok := registry[key]
	return ok
}

// All returns every registered category, sorted by key.
func All() []Category {
	out := make([]Category, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns the sorted set of registered category keys.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DisplayNameFor returns the display name for key, falling back to the
// key itself when the category is unknown.
func DisplayNameFor(key string) string {
	if c, ok := registry[key]; ok {
		return c.DisplayName
	}
	return key
}
