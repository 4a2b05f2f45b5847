package generation

import (
	"sort"

	"github.com/brandwell/contentforge/internal/models"
)

// RankAssets orders media assets by suitability as image generation input.
// Images rank above videos; within a kind, higher resolution wins.
// The input slice is not modified.
func RankAssets(assets []models.MediaAsset) []models.MediaAsset {
	ranked := make([]models.MediaAsset, len(assets))
	copy(ranked, assets)

	sort.SliceStable(ranked, func(i, j int) bool {
		iImage := ranked[i].Kind == models.MediaAssetImage
		jImage := ranked[j].Kind == models.MediaAssetImage
		if iImage != jImage {
			return iImage
		}
		return ranked[i].PixelArea() > ranked[j].PixelArea()
	})
	return ranked
}

// SelectBestAsset picks the single most suitable asset, nil when none exist
func SelectBestAsset(assets []models.MediaAsset) *models.MediaAsset {
	if len(assets) == 0 {
		return nil
	}
	ranked := RankAssets(assets)
	return &ranked[0]
}
