// internal/handler/catalog_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"receipt-encoder/internal/receipt"
	"receipt-encoder/pkg/escpos"
	"receipt-encoder/pkg/escpos/canvas"
	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

// SymbologyInfo describes a barcode the printer can draw
type SymbologyInfo struct {
	Name       string `json:"name"`
	Code       byte   `json:"code"`
	MinLength  int    `json:"min_length"`
	MaxLength  int    `json:"max_length,omitempty"`
	EvenLength bool   `json:"even_length,omitempty"`
}

// ListProfiles returns the known paper widths
func ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": layout.Profiles()})
}

// ListCodepages returns every selectable character table. Unmapped tables
// print ASCII only.
func ListCodepages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"codepages": escpos.Codepages()})
}

// ListSymbologies returns the barcode types accepted by the barcode command
func ListSymbologies(c *gin.Context) {
	list := escpos.Symbologies()
	out := make([]SymbologyInfo, 0, len(list))
	for _, s := range list {
		out = append(out, SymbologyInfo{
			Name:       s.Name,
			Code:       s.Code,
			MinLength:  s.LenMin,
			MaxLength:  s.LenMax,
			EvenLength: s.EvenLength,
		})
	}
	c.JSON(http.StatusOK, gin.H{"symbologies": out})
}

// ListCapabilities returns the renderers with their options
func ListCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"renderers":   []receipt.Renderer{receipt.RendererESCPOS, receipt.RendererCanvas},
		"surfaces":    []string{canvas.SurfaceRaster, canvas.SurfaceVector},
		"classifiers": []string{layout.ClassifierCodepoint, layout.ClassifierEastAsian},
		"dithering":   []raster.Algorithm{raster.Threshold, raster.Bayer, raster.FloydSteinberg, raster.Atkinson},
	})
}
