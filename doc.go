// Package mdview renders Markdown into block-annotated HTML and keeps a
// rendered view and a source line in sync while the document streams in,
// reflows and scrolls.
//
// # Quick Start
//
// Render a document and resolve lines through its source map:
//
//	r, err := mdview.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := r.Render(ctx, mdview.Input{Markdown: "# Hello\n\nWorld"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pos, ok := doc.Map.PositionFromLine(2) // {b1 0}, true
//
// Every top-level block of doc.HTML is wrapped in an element carrying
// data-block-id, data-line-start and data-line-end.
//
// # Scroll Synchronization
//
// A Controller drives a Surface (the scrollable view) through four states:
//
//   - INITIAL: no target line yet; surface signals are ignored.
//   - RESTORING: a target is known but its block is missing or not laid out.
//     Every content mutation retries.
//   - TRACKING: user scrolling updates the target and is reported upstream
//     after a debounce. Content growth re-anchors the view on the target.
//   - LOCKED: entered after every scroll the controller issues itself.
//     Scroll signals update the target silently until the lock expires.
//
// Hosts call SetTargetLine when an editor cursor moves and
// OnStreamingComplete when no more content will arrive:
//
//	c := mdview.NewController(surface, doc.Map,
//	    mdview.WithUserScrollHandler(func(line int) { editor.Reveal(line) }),
//	)
//	c.Start()
//	defer c.Dispose()
//	c.SetTargetLine(120)
//
// # Browser Host
//
// BrowserSurface implements Surface on a headless Chrome page driven by
// go-rod, in window or container scroll mode. Viewer ties a Renderer, a
// BrowserSurface and a Controller together and supports streaming updates:
//
//	b := mdview.NewBrowser(30 * time.Second)
//	defer b.Close()
//	v, err := mdview.NewViewer(b, mdview.ViewerOptions{})
//	for i, chunk := range chunks {
//	    err = v.Update(ctx, chunk, i == len(chunks)-1)
//	}
//
// MemorySurface is an in-process Surface for tests and hosts without a DOM.
//
// # Browser Requirements
//
// The browser host requires Chrome/Chromium. The go-rod library downloads a
// managed Chromium on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdview
