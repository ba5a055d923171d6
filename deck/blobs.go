package deck

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/wordslides/imageinfo"
	"github.com/ByLCY/wordslides/layout"
)

// Blob 是上传或读取到的原始图片字节。
type Blob struct {
	Name string
	Data []byte
}

// ComposeBlobs 先并行解析图片头部（只解析参与配对的前缀），再按顺序组装。
// 单张图片无法解析时，该配对以 imageinfo.ErrMalformedImageData 失败。
func ComposeBlobs(ctx context.Context, blobs []Blob, words []string, opts Options) (*layout.Deck, error) {
	pairing := Pair(len(blobs), len(words))
	n := pairing.Count()

	sources := make([]layout.SourceImage, n)
	errs := make([]error, n)

	eg, egCtx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			sources[i], errs[i] = Load(blobs[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("解析图片被中断: %w", err)
	}

	return compose(pairing, words, opts, func(i int) (layout.SourceImage, error) {
		return sources[i], errs[i]
	})
}

// Load 解析一张图片并转换为布局输入；必要时转码为可嵌入格式。
func Load(b Blob) (layout.SourceImage, error) {
	info, err := imageinfo.Probe(b.Data)
	if err != nil {
		return layout.SourceImage{}, err
	}
	data, info, err := imageinfo.Normalize(b.Data, info)
	if err != nil {
		return layout.SourceImage{}, err
	}
	return layout.SourceImage{
		Name:     b.Name,
		WidthPx:  info.Width,
		HeightPx: info.Height,
		DPI:      info.DPI,
		Format:   info.Format,
		Data:     data,
	}, nil
}
