package util

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	ThumbnailWidth   = 480
	thumbnailQuality = 80
)

// GetSafeContentType 按文件内容嗅探类型，读取后把 reader 复位
func GetSafeContentType(reader io.ReadSeeker) (string, error) {
	mtype, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	contentType, _, _ := strings.Cut(mtype.String(), ";")
	return contentType, nil
}

// ObjectName 生成 2006/01/02/<uuid><ext> 形式的对象名，扩展名取自嗅探到的类型
func ObjectName(prefix, contentType string) string {
	name := time.Now().Format("2006/01/02/") + uuid.NewString() + ExtensionFor(contentType)
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// ExtensionFor 类型对应的扩展名，未知类型返回空
func ExtensionFor(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}

// ThumbnailName 对象对应的缩略图名
func ThumbnailName(objectName string) string {
	return strings.TrimSuffix(objectName, path.Ext(objectName)) + "_thumb.jpg"
}

// MakeThumbnail 按宽度等比缩放并编码为 JPEG，小图不放大
func MakeThumbnail(reader io.Reader, width int) ([]byte, error) {
	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var thumb image.Image = img
	if img.Bounds().Dx() > width {
		thumb = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
