package subtitle

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const utf8BOM = "\xef\xbb\xbf"

// CommonEncodings lists encodings commonly used for subtitle files,
// in detection-priority order.
var CommonEncodings = []string{
	"utf-8",
	"utf-8-sig", // UTF-8 with BOM
	"cp874",     // Windows Thai
	"tis-620",   // Thai Industrial Standard
	"cp1250",    // Windows Central European
	"cp1251",    // Windows Cyrillic
	"cp1252",    // Windows Western European
	"cp1253",    // Windows Greek
	"cp1254",    // Windows Turkish
	"cp1255",    // Windows Hebrew
	"cp1256",    // Windows Arabic
	"cp1257",    // Windows Baltic
	"cp1258",    // Windows Vietnamese
	"shift_jis", // Japanese
	"euc-jp",    // Japanese
	"euc-kr",    // Korean
	"gb2312",    // Simplified Chinese
	"big5",      // Traditional Chinese
	"iso8859-2", // Central European
	"iso8859-5", // Cyrillic
	"iso8859-6", // Arabic
	"iso8859-7", // Greek
	"iso8859-8", // Hebrew
	"iso8859-15", // Western European with Euro
	"koi8-r",    // Russian
}

// encodingAliases maps the names users pass on the command line to the
// canonical names understood by the html index.
var encodingAliases = map[string]string{
	"cp874":      "windows-874",
	"tis-620":    "windows-874",
	"iso8859-11": "windows-874",
	"cp932":      "shift_jis",
	"cp936":      "gbk",
	"gb2312":     "gbk",
	"cp949":      "euc-kr",
	"cp950":      "big5",
	"cp1250":     "windows-1250",
	"cp1251":     "windows-1251",
	"cp1252":     "windows-1252",
	"cp1253":     "windows-1253",
	"cp1254":     "windows-1254",
	"cp1255":     "windows-1255",
	"cp1256":     "windows-1256",
	"cp1257":     "windows-1257",
	"cp1258":     "windows-1258",
	"latin1":     "windows-1252",
	"iso8859-1":  "windows-1252",
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	canonical := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[canonical]; ok {
		canonical = alias
	}
	canonical = strings.Replace(canonical, "iso8859-", "iso-8859-", 1)

	enc, err := htmlindex.Get(canonical)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return true
	}
	return false
}

// decodeBytes decodes raw file content from the named encoding to a UTF-8
// string. An empty name means UTF-8.
func decodeBytes(raw []byte, name string) (string, error) {
	if isUTF8Name(name) {
		raw = bytes.TrimPrefix(raw, []byte(utf8BOM))
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("content is not valid UTF-8")
		}
		return string(raw), nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode as %s: %w", name, err)
	}
	return string(decoded), nil
}

// encodeString encodes UTF-8 text into the named encoding. Characters the
// target cannot represent are replaced, matching lenient converter behavior.
func encodeString(text string, name string) ([]byte, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "utf-8-sig" {
		return append([]byte(utf8BOM), text...), nil
	}
	if isUTF8Name(name) {
		return []byte(text), nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	encoder := encoding.ReplaceUnsupported(enc.NewEncoder())
	out, err := encoder.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode as %s: %w", name, err)
	}
	return out, nil
}

// DetectEncoding tries the candidate encodings in order and returns the first
// one that decodes the file without replacement characters. Best effort, in
// the same spirit as trying encodings until one reads cleanly.
func DetectEncoding(path string, candidates []string) (string, error) {
	if candidates == nil {
		candidates = CommonEncodings
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, name := range candidates {
		text, err := decodeBytes(raw, name)
		if err != nil {
			continue
		}
		if strings.ContainsRune(text, utf8.RuneError) {
			continue
		}
		if strings.ToLower(name) == "utf-8-sig" && !bytes.HasPrefix(raw, []byte(utf8BOM)) {
			continue
		}
		return name, nil
	}

	return "", fmt.Errorf("could not detect encoding for %s", path)
}

// ConvertFile converts a subtitle file from one encoding to another.
// An empty fromEncoding triggers detection.
func ConvertFile(inputPath, outputPath, fromEncoding, toEncoding string) error {
	if fromEncoding == "" {
		detected, err := DetectEncoding(inputPath, nil)
		if err != nil {
			return err
		}
		fromEncoding = detected
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	text, err := decodeBytes(raw, fromEncoding)
	if err != nil {
		return err
	}

	out, err := encodeString(text, toEncoding)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// RecommendedEncodings returns the encodings worth producing for a target
// language, most preferred first.
func RecommendedEncodings(langCode string) []string {
	recommendations := map[string][]string{
		"th":    {"utf-8", "tis-620", "cp874"},
		"zh-CN": {"utf-8", "gb2312", "cp936"},
		"zh-TW": {"utf-8", "big5", "cp950"},
		"ja":    {"utf-8", "shift_jis", "euc-jp", "cp932"},
		"ko":    {"utf-8", "euc-kr", "cp949"},
		"ru":    {"utf-8", "cp1251", "koi8-r", "iso8859-5"},
		"ar":    {"utf-8", "cp1256", "iso8859-6"},
		"he":    {"utf-8", "cp1255", "iso8859-8"},
		"tr":    {"utf-8", "cp1254"},
		"el":    {"utf-8", "cp1253", "iso8859-7"},
		"vi":    {"utf-8", "cp1258"},
	}

	if encs, ok := recommendations[langCode]; ok {
		return encs
	}
	base, _, _ := strings.Cut(langCode, "-")
	if encs, ok := recommendations[base]; ok {
		return encs
	}
	return []string{"utf-8", "utf-8-sig", "cp1252", "iso8859-15"}
}
