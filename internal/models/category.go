package models

// CategoryConfig represents one keyword rule in the categories YAML file.
// Rules are evaluated in file order and the first rule with a matching keyword wins.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig represents the structure of the categories YAML file
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
	Fallback   string           `yaml:"fallback,omitempty"`
}
