// Package imgcodecs reads and writes 8-bit images as core.Mat.
//
// Grayscale files become 8UC1 Mats; color files become 8UC3 Mats with the
// channels in BGR order. Writing accepts 8UC1, 8UC3 (BGR) and 8UC4 (BGRA).
// BMP goes through golang.org/x/image/bmp, PNG through image/png.
package imgcodecs
