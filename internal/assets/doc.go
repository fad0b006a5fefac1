// Package assets provides the stylesheets, page template and browser scripts
// of the viewer.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from the go:embed filesystem
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/{name}.css       # document themes (default, dark)
//	├── templates/{name}.html   # page skeleton (page)
//	└── scripts/{name}.js       # function expressions evaluated in the page
//
// Scripts are single JavaScript function expressions; the browser host
// evaluates them with arguments.
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
