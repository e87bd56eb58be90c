package resizer

import (
	"time"

	"github.com/golang/protobuf/proto"
)

// CachedImage is a rendered image as stored in the thumbnails group.
type CachedImage struct {
	Buffer  []byte `protobuf:"bytes,1,opt,name=buffer,proto3" json:"buffer,omitempty"`
	Format  string `protobuf:"bytes,2,opt,name=format,proto3" json:"format,omitempty"`
	ModTime []byte `protobuf:"bytes,3,opt,name=mod_time,json=modTime,proto3" json:"mod_time,omitempty"`
}

func (m *CachedImage) Reset()         { *m = CachedImage{} }
func (m *CachedImage) String() string { return proto.CompactTextString(m) }
func (*CachedImage) ProtoMessage()    {}

func (m *CachedImage) GetBuffer() []byte {
	if m != nil {
		return m.Buffer
	}
	return nil
}

func (m *CachedImage) GetFormat() string {
	if m != nil {
		return m.Format
	}
	return ""
}

func (m *CachedImage) GetModTime() []byte {
	if m != nil {
		return m.ModTime
	}
	return nil
}

// Time decodes ModTime, the zero time when unset.
func (m *CachedImage) Time() time.Time {
	var t time.Time
	_ = t.UnmarshalBinary(m.GetModTime())
	return t
}

// SetTime encodes t into ModTime.
func (m *CachedImage) SetTime(t time.Time) {
	m.ModTime, _ = t.MarshalBinary()
}
