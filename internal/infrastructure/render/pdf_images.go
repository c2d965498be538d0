package render

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const maxPDFImages = 8

var disablePDFConfigDir = sync.OnceFunc(api.DisableConfigDir)

type pageImage struct {
	page  int
	obj   int
	bytes []byte
}

// pdfPageImages returns the JPEG and PNG image objects embedded in a PDF in
// page order, capped at maxPDFImages. Masks and thumbnails are skipped.
func pdfPageImages(content []byte) (images [][]byte, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			images, err = nil, fmt.Errorf("malformed pdf: %v", recovered)
		}
	}()
	disablePDFConfigDir()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var (
		found []pageImage
		seen  = map[int]bool{}
	)
	digest := func(img model.Image, _ bool, _ int) error {
		if img.IsImgMask || img.Thumb || seen[img.ObjNr] {
			return nil
		}
		if img.FileType != "jpg" && img.FileType != "png" {
			return nil
		}
		raw, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		if len(raw) == 0 {
			return nil
		}
		seen[img.ObjNr] = true
		found = append(found, pageImage{page: img.PageNr, obj: img.ObjNr, bytes: raw})
		return nil
	}

	if err := api.ExtractImages(bytes.NewReader(content), nil, digest, conf); err != nil {
		return nil, fmt.Errorf("extract pdf images: %w", err)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].page != found[j].page {
			return found[i].page < found[j].page
		}
		return found[i].obj < found[j].obj
	})
	if len(found) > maxPDFImages {
		found = found[:maxPDFImages]
	}

	images = make([][]byte, 0, len(found))
	for _, img := range found {
		images = append(images, img.bytes)
	}
	return images, nil
}
