package asset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示病毒扫描命中。
var ErrInfected = errors.New("malicious file detected")

// Scanner 在文件入库前做内容扫描。
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamScanner 通过 clamd 的流式接口扫描上传内容。
type ClamScanner struct {
	addr string
}

func NewClamScanner(addr string) *ClamScanner {
	return &ClamScanner{addr: addr}
}

// Scan 实现 Scanner。命中返回 ErrInfected，扫描服务不可用返回其他错误。
func (s *ClamScanner) Scan(_ context.Context, r io.Reader) error {
	client := clamd.NewClamd(s.addr)

	abort := make(chan bool)
	results, err := client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abort)

	for result := range results {
		if result.Status != clamd.RES_OK {
			return ErrInfected
		}
	}
	return nil
}
