// Package pipeline turns Markdown into block-annotated HTML.
//
// Stages, in order:
//   - line ending normalization and front matter splitting
//   - ==highlight== preprocessing (line count preserved)
//   - goldmark conversion with GFM, footnotes and chroma highlighting, each
//     top-level block wrapped in an element carrying data-block-id,
//     data-line-start and data-line-end
//   - relative resource paths rewritten to file:// URLs
//   - page assembly from the page template
//
// Line numbers are 0-based lines of the original file. Every stage before
// conversion keeps the line count unchanged so block ranges stay exact.
package pipeline
