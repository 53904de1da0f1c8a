package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// SubURLDir is the directory, below an output directory, holding the
// per-site sub-URL checkpoints.
const SubURLDir = "sub_urls"

// unsafeChars are replaced in site keys so they are valid file names on
// every platform.
var unsafeChars = strings.NewReplacer(
	":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_", `\`, "_", " ", "_",
)

// maxKeyPrefix bounds the readable part of a site key so the checkpoint
// names stay well below the 255-byte file name limit.
const maxKeyPrefix = 100

// SiteKey derives a file-name-safe key from a site URL. The readable part
// flattens the URL ("https://a.com/docs/" gives "https_a.com_docs") and is
// cut at maxKeyPrefix bytes; a hash of the full URL follows it, so sites
// that flatten alike still get distinct keys.
func SiteKey(site string) string {
	key := strings.Replace(site, "://", "_", 1)
	key = strings.Trim(key, "/")
	key = strings.ReplaceAll(key, "/", "_")
	key = unsafeChars.Replace(key)
	if len(key) > maxKeyPrefix {
		cut := maxKeyPrefix
		for cut > 0 && !utf8.RuneStart(key[cut]) {
			cut--
		}
		key = key[:cut]
	}
	sum := sha256.Sum256([]byte(site))
	return key + "-" + hex.EncodeToString(sum[:6])
}

// SubURLPaths returns the raw and cleaned checkpoint paths for site under dir.
func SubURLPaths(dir, site string) (raw, cleaned string) {
	base := filepath.Join(dir, SubURLDir, SiteKey(site))
	return base + "_raw.json", base + ".json"
}

// RawPath returns the raw checkpoint path paired with a cleaned result path:
// "out/graph.json" becomes "out/graph_raw.json".
func RawPath(result string) string {
	ext := filepath.Ext(result)
	if ext == "" {
		return result + "_raw.json"
	}
	return strings.TrimSuffix(result, ext) + "_raw" + ext
}
