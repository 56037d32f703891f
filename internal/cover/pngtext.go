package cover

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ParametersKey is the text chunk keyword hosts use for generation parameters.
const ParametersKey = "parameters"

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// EncodePNG writes img as PNG. A non-empty params is stored in a single text
// chunk named "parameters" placed right after IHDR: tEXt when the text fits
// Latin-1, otherwise an uncompressed UTF-8 iTXt chunk. NUL bytes are dropped.
func EncodePNG(w io.Writer, img image.Image, params string) error {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if params == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}

	b := buf.Bytes()
	// signature(8) + IHDR length(4) + type(4) + data(13) + crc(4)
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(b) < ihdrEnd || string(b[12:16]) != "IHDR" {
		return errors.New("encode png: unexpected encoder output")
	}
	if _, err := w.Write(b[:ihdrEnd]); err != nil {
		return err
	}
	if err := writeTextChunk(w, ParametersKey, params); err != nil {
		return err
	}
	_, err := w.Write(b[ihdrEnd:])
	return err
}

func writeTextChunk(w io.Writer, key, text string) error {
	// NUL separates chunk fields; it cannot appear in the text itself
	text = strings.ReplaceAll(text, "\x00", "")
	if latin1, err := charmap.ISO8859_1.NewEncoder().String(text); err == nil {
		data := make([]byte, 0, len(key)+1+len(latin1))
		data = append(data, key...)
		data = append(data, 0)
		data = append(data, latin1...)
		return writeChunk(w, "tEXt", data)
	}
	// keyword, null, compression flag, compression method, language tag, null, translated keyword, null, text
	data := make([]byte, 0, len(key)+5+len(text))
	data = append(data, key...)
	data = append(data, 0, 0, 0, 0, 0)
	data = append(data, text...)
	return writeChunk(w, "iTXt", data)
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	for _, p := range [][]byte{hdr[:], data, sum[:]} {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// ReadPNGText returns the uncompressed tEXt and iTXt chunks of a PNG stream,
// keyed by keyword. Compressed chunks (zTXt, compressed iTXt) are skipped.
func ReadPNGText(r io.Reader) (map[string]string, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read png signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("not a png file")
	}
	out := map[string]string{}
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("read png chunk: %w", err)
		}
		n := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:])
		if n > 64<<20 {
			return out, fmt.Errorf("png chunk %s too large", typ)
		}
		switch typ {
		case "tEXt", "iTXt":
			data := make([]byte, n)
			if _, err := io.ReadFull(r, data); err != nil {
				return out, fmt.Errorf("read %s: %w", typ, err)
			}
			if k, v, ok := parseText(typ, data); ok {
				out[k] = v
			}
			if _, err := io.CopyN(io.Discard, r, 4); err != nil {
				return out, err
			}
		case "IDAT", "IEND":
			// text chunks that matter to us come before the image data
			return out, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(n)+4); err != nil {
				return out, err
			}
		}
	}
}

func parseText(typ string, data []byte) (string, string, bool) {
	i := bytes.IndexByte(data, 0)
	if i <= 0 {
		return "", "", false
	}
	key := string(data[:i])
	rest := data[i+1:]
	if typ == "tEXt" {
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(rest)
		if err != nil {
			return "", "", false
		}
		return key, string(s), true
	}
	// iTXt: compression flag, method, language\0, translated keyword\0, text
	if len(rest) < 2 || rest[0] != 0 {
		return "", "", false
	}
	rest = rest[2:]
	for n := 0; n < 2; n++ {
		j := bytes.IndexByte(rest, 0)
		if j < 0 {
			return "", "", false
		}
		rest = rest[j+1:]
	}
	return key, string(rest), true
}
