package badger

import (
	"github.com/poiesic/resumatch/core"
)

// Key prefixes for different data types
const (
	collectionManifestPrefix = "colmf"
	pointPrefix              = "pt"
	pointDocPrefix           = "ptd"
	documentPrefix           = "doc"
	documentRolePrefix       = "docrole"
)

// sep separates variable-length key components. Document ids are free-form
// strings, so a printable separator could collide with id contents.
const sep = byte(0)

// CollectionName maps a section to its collection name.
func CollectionName(section core.Section) string {
	return "resume_" + string(section)
}

// makeManifestKey generates a key for a collection manifest.
func makeManifestKey(collection string) []byte {
	return append([]byte(collectionManifestPrefix+":"), []byte(collection)...)
}

// makePointKey generates a key for a stored point.
// Format: pt:collection<sep>chunkID
func makePointKey(collection, chunkID string) []byte {
	buf := make([]byte, 0, len(pointPrefix)+1+len(collection)+1+len(chunkID))
	buf = append(buf, pointPrefix...)
	buf = append(buf, ':')
	buf = append(buf, collection...)
	buf = append(buf, sep)
	buf = append(buf, chunkID...)
	return buf
}

// makePointScanPrefix generates the iteration prefix over one collection's
// points.
func makePointScanPrefix(collection string) []byte {
	buf := make([]byte, 0, len(pointPrefix)+1+len(collection)+1)
	buf = append(buf, pointPrefix...)
	buf = append(buf, ':')
	buf = append(buf, collection...)
	buf = append(buf, sep)
	return buf
}

// makePointDocKey generates a composite key for the per-document point
// index. Format: ptd:collection<sep>documentID<sep>chunkID
func makePointDocKey(collection, documentID, chunkID string) []byte {
	buf := make([]byte, 0, len(pointDocPrefix)+1+len(collection)+1+len(documentID)+1+len(chunkID))
	buf = append(buf, pointDocPrefix...)
	buf = append(buf, ':')
	buf = append(buf, collection...)
	buf = append(buf, sep)
	buf = append(buf, documentID...)
	buf = append(buf, sep)
	buf = append(buf, chunkID...)
	return buf
}

// makePointDocScanPrefix generates the iteration prefix over one document's
// index entries within a collection.
func makePointDocScanPrefix(collection, documentID string) []byte {
	buf := make([]byte, 0, len(pointDocPrefix)+1+len(collection)+1+len(documentID)+1)
	buf = append(buf, pointDocPrefix...)
	buf = append(buf, ':')
	buf = append(buf, collection...)
	buf = append(buf, sep)
	buf = append(buf, documentID...)
	buf = append(buf, sep)
	return buf
}

// makeDocumentKey generates a key for a document snapshot.
func makeDocumentKey(id string) []byte {
	return append([]byte(documentPrefix+":"), []byte(id)...)
}

// makeDocumentRoleKey generates a composite key for the role index.
// Format: docrole:canonicalRole<sep>documentID
func makeDocumentRoleKey(canonicalRole, id string) []byte {
	buf := make([]byte, 0, len(documentRolePrefix)+1+len(canonicalRole)+1+len(id))
	buf = append(buf, documentRolePrefix...)
	buf = append(buf, ':')
	buf = append(buf, canonicalRole...)
	buf = append(buf, sep)
	buf = append(buf, id...)
	return buf
}

// makeDocumentRoleScanPrefix generates the iteration prefix over one role's
// index entries.
func makeDocumentRoleScanPrefix(canonicalRole string) []byte {
	buf := make([]byte, 0, len(documentRolePrefix)+1+len(canonicalRole)+1)
	buf = append(buf, documentRolePrefix...)
	buf = append(buf, ':')
	buf = append(buf, canonicalRole...)
	buf = append(buf, sep)
	return buf
}
