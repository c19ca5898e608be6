// Package layout turns positioned text into logical field values.
//
// All vector-text geometry is in document space: origin at the bottom-left
// of the page, Y growing upwards, a fragment's Y being the bottom of its box.
// OCR lines use raster pixel space instead, with the origin at the top-left.
//
// The heuristics here are tuned for dense tabular report layouts such as
// borehole logs, where one column may hold wrapped descriptions and another
// stacked blow counts written as a fraction ("12" over "25").
package layout
