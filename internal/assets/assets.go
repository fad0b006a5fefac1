package assets

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads an embedded style by name.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadScript loads an embedded script by name.
func LoadScript(name string) (string, error) {
	return defaultLoader.LoadScript(name)
}

// LoadTemplate loads an embedded template by name.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// StyleNames lists the embedded styles.
func StyleNames() []string {
	return defaultLoader.StyleNames()
}
