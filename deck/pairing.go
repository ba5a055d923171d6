package deck

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch 表示图片与文字数量不一致，只有重叠的前缀会参与配对。
var ErrLengthMismatch = errors.New("images and words differ in length")

// Pairing 是按位置配对图片与文字的结果。
type Pairing struct {
	Images int
	Words  int
}

// Pair 记录两个序列的长度；配对数量取较短者。
func Pair(images, words int) Pairing {
	return Pairing{Images: max(images, 0), Words: max(words, 0)}
}

// Count 返回可配对的数量。
func (p Pairing) Count() int { return min(p.Images, p.Words) }

// Truncated 报告是否有图片或文字因长度不一致被丢弃。
func (p Pairing) Truncated() bool { return p.Images != p.Words }

// DroppedImages 返回未被使用的图片数量。
func (p Pairing) DroppedImages() int { return p.Images - p.Count() }

// DroppedWords 返回未被使用的文字数量。
func (p Pairing) DroppedWords() int { return p.Words - p.Count() }

// Err 在发生截断时返回 *LengthMismatchError，否则返回 nil。
// 截断是约定的配对策略，调用方可以把它当作警告而不是失败。
func (p Pairing) Err() error {
	if !p.Truncated() {
		return nil
	}
	return &LengthMismatchError{Images: p.Images, Words: p.Words}
}

// LengthMismatchError 描述一次截断。
type LengthMismatchError struct {
	Images int
	Words  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%d images, %d words: using the first %d pairs", e.Images, e.Words, min(e.Images, e.Words))
}

func (e *LengthMismatchError) Unwrap() error { return ErrLengthMismatch }
