package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding hash spaces.
const (
	DomainItem     = "veil/item/v1"
	DomainManifest = "veil/manifest/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

var itemHandleRef = regexp.MustCompile(`#(\d+)`)

// ResolveHandles replaces arena handles ("#7") in a fingerprint with the
// referenced item's path ("@ns::f"). Arena numbering is run-local, so raw
// handles must never leak into a cross-run digest or a backend document.
func ResolveHandles(a *Arena, key string) string {
	return itemHandleRef.ReplaceAllStringFunc(key, func(m string) string {
		n, err := strconv.ParseUint(m[1:], 10, 32)
		if err != nil || !a.Contains(ItemID(n)) {
			return m
		}
		return "@" + a.Get(ItemID(n)).Path.String()
	})
}

// ItemDigest computes the content-addressed identity of a translated
// Item. It is stable across runs and processes: arena handles are
// resolved to paths and all serialization is canonical JSON.
//
// The store's translation cache keys on this digest, so any change to a
// body, contract, or type signature produces a new digest.
func ItemDigest(a *Arena, it *Item) (string, error) {
	obj := map[string]any{
		"path":       it.Path.String(),
		"kind":       string(it.Kind),
		"visibility": string(it.Visibility),
	}
	if len(it.TypeArgs) > 0 {
		obj["type_args"] = joinTypeKeys(it.TypeArgs, ",")
	}
	if len(it.Params) > 0 {
		params := make([]string, len(it.Params))
		for i, p := range it.Params {
			params[i] = p.Name + ":" + TypeKey(p.Type)
		}
		obj["params"] = params
	}
	if it.Result != nil {
		obj["result"] = TypeKey(it.Result)
	}
	if it.Underlying != nil {
		obj["underlying"] = TypeKey(it.Underlying)
	}
	if it.Body != nil {
		obj["body"] = ResolveHandles(a, ExprKey(it.Body))
	}
	if it.ConstValue != nil {
		obj["const"] = ResolveHandles(a, ExprKey(it.ConstValue))
	}
	if c := it.Contract; !c.IsEmpty() {
		contract := map[string]any{}
		if len(c.Preconditions) > 0 {
			pre := make([]string, len(c.Preconditions))
			for i, p := range c.Preconditions {
				pre[i] = ResolveHandles(a, ExprKey(p))
			}
			contract["preconditions"] = pre
		}
		if len(c.Postconditions) > 0 {
			post := make([]string, len(c.Postconditions))
			for i, q := range c.Postconditions {
				post[i] = q.Result + " => " + ResolveHandles(a, ExprKey(q.Pred))
			}
			contract["postconditions"] = post
		}
		if c.Decreases != nil {
			contract["decreases"] = ResolveHandles(a, ExprKey(c.Decreases))
		}
		obj["contract"] = contract
	}
	if r := it.Refinement; r != nil {
		obj["refinement"] = map[string]any{
			"base":   TypeKey(r.Base),
			"binder": r.Binder,
			"pred":   ResolveHandles(a, ExprKey(r.Pred)),
		}
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ItemDigest %s: %w", it.Path, err)
	}
	return hashWithDomain(DomainItem, canonical), nil
}

// ManifestDigest computes the identity of a dispatch manifest from its
// canonical JSON rendering.
func ManifestDigest(canonical []byte) string {
	return hashWithDomain(DomainManifest, canonical)
}

// MustItemDigest is like ItemDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustItemDigest(a *Arena, it *Item) string {
	d, err := ItemDigest(a, it)
	if err != nil {
		panic(err)
	}
	return d
}
