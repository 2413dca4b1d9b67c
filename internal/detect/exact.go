// internal/detect/exact.go
package detect

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dsablic/licet/internal/model"
)

// matchExact is tier 0: digest lookup against the corpus fingerprint index.
// The MD5 digest acts as a cheap pre-filter; SHA-256 is authoritative. A hit
// means the normalized text is byte-identical to a reference text or one of
// its recorded variants, so confidence is always 1.0.
//
// The pre-filter only indexes canonical texts. Variant fingerprints exist
// solely in the SHA-256 index, so a pre-filter miss is conclusive only when
// the corpus carries no variants.
func (d *Detector) matchExact(normalized string) (model.DetectedLicense, bool) {
	md5sum := md5.Sum([]byte(normalized))
	if _, ok := d.corpus.LookupMD5(hex.EncodeToString(md5sum[:])); !ok && !d.corpus.HasVariantFingerprints() {
		return model.DetectedLicense{}, false
	}

	sha := sha256.Sum256([]byte(normalized))
	id, ok := d.corpus.LookupSHA256(hex.EncodeToString(sha[:]))
	if !ok {
		return model.DetectedLicense{}, false
	}

	return model.DetectedLicense{
		SPDXID:     id,
		Confidence: 1.0,
		Method:     model.MethodHash,
		MatchType:  "license_text",
	}, true
}
