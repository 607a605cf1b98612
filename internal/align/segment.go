package align

import "github.com/go-ego/gse"

// Segmenter supplies word segmentation for languages written without
// spaces. Realignment only needs the surface segments in order.
type Segmenter interface {
	Cut(text string) []string
}

type gseSegmenter struct {
	seg gse.Segmenter
}

// NewChineseSegmenter loads the embedded Chinese dictionary. Loading is
// relatively expensive, so callers should construct one segmenter and share
// it across files.
func NewChineseSegmenter() (Segmenter, error) {
	var seg gse.Segmenter
	if err := seg.LoadDictEmbed(); err != nil {
		return nil, err
	}
	return &gseSegmenter{seg: seg}, nil
}

func (g *gseSegmenter) Cut(text string) []string {
	return g.seg.Cut(text, true)
}
