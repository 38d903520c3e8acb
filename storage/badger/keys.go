package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/hustings/canvass/core"
)

// Key prefixes for different data types
const (
	documentPrefix        = "docrec"
	documentNamePrefix    = "docname"
	documentCreatedPrefix = "doccre"
	documentStatusPrefix  = "docstat"
	termPrefix            = "taxterm"
	termNamePrefix        = "taxname"
	termSubcategoryPrefix = "taxsub"
	termParentPrefix      = "taxpar"
	synonymPrefix         = "taxsyn"
	synonymNamePrefix     = "taxsynname"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentNameKey generates a key for the unique filename index.
func makeDocumentNameKey(filename string) []byte {
	return []byte(documentNamePrefix + ":" + strings.ToLower(filename))
}

// makeDocumentCreatedKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id, BigEndian so lexicographic sort matches time order.
func makeDocumentCreatedKey(createdAt time.Time, id core.ID) []byte {
	prefix := []byte(documentCreatedPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentStatusKey generates a composite key for the status index.
// Format: prefix:status:timestamp:id, creation time BigEndian.
func makeDocumentStatusKey(status core.DocumentStatus, createdAt time.Time, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%d:", documentStatusPrefix, status))
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentStatusPrefix generates the scan prefix for one status.
func makeDocumentStatusPrefix(status core.DocumentStatus) []byte {
	return []byte(fmt.Sprintf("%s:%d:", documentStatusPrefix, status))
}

// makeTermKey generates a key for a taxonomy term by ID.
func makeTermKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", termPrefix, id))
}

// makeTermNameKey generates a key for the case-insensitive term name index.
func makeTermNameKey(term string) []byte {
	return []byte(termNamePrefix + ":" + strings.ToLower(term))
}

// makeTermSubcategoryKey generates a composite key for the subcategory index.
// Format: prefix:subcategory:id
func makeTermSubcategoryKey(subcategory string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", termSubcategoryPrefix, strings.ToLower(subcategory), id))
}

// makeTermSubcategoryPrefix generates the scan prefix for one subcategory.
func makeTermSubcategoryPrefix(subcategory string) []byte {
	return []byte(termSubcategoryPrefix + ":" + strings.ToLower(subcategory) + ":")
}

// makeTermParentKey generates a composite key for the children index.
// Format: prefix:parentID:childID
func makeTermParentKey(parentID, childID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", termParentPrefix, parentID, childID))
}

// makeTermParentPrefix generates the scan prefix for one parent's children.
func makeTermParentPrefix(parentID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:", termParentPrefix, parentID))
}

// makeSynonymKey generates a key for a synonym record by ID.
func makeSynonymKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", synonymPrefix, id))
}

// makeSynonymNameKey generates a key for the case-insensitive synonym index.
func makeSynonymNameKey(synonym string) []byte {
	return []byte(synonymNamePrefix + ":" + strings.ToLower(synonym))
}
