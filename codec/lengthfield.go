package codec

import (
	"encoding/binary"
	"github.com/brickingsoft/errors"
)

const (
	lengthFieldSize = 8
)

// NewLengthFieldEncoder
// 长度字段编码器:在负载前置 8 字节大端长度。
func NewLengthFieldEncoder() Encoder[[]byte] {
	return &lengthFieldEncoder{}
}

type lengthFieldEncoder struct {
}

func (encoder *lengthFieldEncoder) Encode(param []byte) (p []byte, err error) {
	pLen := len(param)
	if pLen == 0 {
		err = errors.New("codec: empty packet")
		return
	}
	p = make([]byte, lengthFieldSize+pLen)
	binary.BigEndian.PutUint64(p, uint64(pLen))
	copy(p[lengthFieldSize:], param)
	return
}
