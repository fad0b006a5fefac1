package assets

import "fmt"

// Built-in asset names.
const (
	DefaultStyleName    = "default"
	DefaultTemplateName = "page"
	ObserverScriptName  = "observe"
	GeometryScriptName  = "geometry"
)

// AssetLoader loads styles, templates and scripts by name.
// Names never include an extension or path components.
type AssetLoader interface {
	// LoadStyle returns ErrStyleNotFound if the style does not exist.
	LoadStyle(name string) (string, error)
	// LoadTemplate returns ErrTemplateNotFound if the template does not exist.
	LoadTemplate(name string) (string, error)
	// LoadScript returns ErrScriptNotFound if the script does not exist.
	LoadScript(name string) (string, error)
}

// kind describes one asset directory.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
	scriptKind   = kind{dir: "scripts", ext: ".js", notFound: ErrScriptNotFound}
)

// file returns the slash-separated path of name inside k's directory.
// Names are limited to letters, digits, '-' and '_'.
func (k kind) file(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return k.dir + "/" + name + k.ext, nil
}

func isNameRune(r rune) bool {
	return r == '-' || r == '_' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
