package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/ledgerfind/core"
)

// Key prefixes for different data types
const (
	receiptPrefix     = "rctrec"
	receiptDatePrefix = "rctrecd"
	receiptIDSeq      = "rctrecseq"

	warrantyPrefix       = "wtyrec"
	warrantyExpiryPrefix = "wtyrecx"
	warrantyIDSeq        = "wtyrecseq"

	vectorPrefix = "vecrec"
	cachePrefix  = "embrec"
)

// makeReceiptKey generates a key for a receipt by user and ID.
func makeReceiptKey(userID, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", receiptPrefix, userID, id))
}

// makeReceiptDateKey generates a composite key for the purchase-date index.
// Format: prefix:user:timestamp:id
func makeReceiptDateKey(userID core.ID, timestamp time.Time, id core.ID) []byte {
	return makeDateIndexKey(receiptDatePrefix, userID, timestamp, id)
}

// makePartialReceiptDateKey generates a partial key for date range queries.
func makePartialReceiptDateKey(userID core.ID, timestamp time.Time) []byte {
	return makePartialDateIndexKey(receiptDatePrefix, userID, timestamp)
}

// makeWarrantyKey generates a key for a warranty by user and ID.
func makeWarrantyKey(userID, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", warrantyPrefix, userID, id))
}

// makeWarrantyExpiryKey generates a composite key for the expiry index.
func makeWarrantyExpiryKey(userID core.ID, expiry time.Time, id core.ID) []byte {
	return makeDateIndexKey(warrantyExpiryPrefix, userID, expiry, id)
}

// makePartialWarrantyExpiryKey generates a partial key for expiry range queries.
func makePartialWarrantyExpiryKey(userID core.ID, expiry time.Time) []byte {
	return makePartialDateIndexKey(warrantyExpiryPrefix, userID, expiry)
}

// makeVectorKey generates a key for a stored embedding by user, entity type,
// and entity ID.
func makeVectorKey(userID core.ID, entityType core.EntityType, entityID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s:%d", vectorPrefix, userID, entityType, entityID))
}

// makeVectorUserPrefix generates the scan prefix covering one user's embeddings.
func makeVectorUserPrefix(userID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:", vectorPrefix, userID))
}

// makeVectorTypePrefix generates the scan prefix covering one user's
// embeddings of a single entity type.
func makeVectorTypePrefix(userID core.ID, entityType core.EntityType) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s:", vectorPrefix, userID, entityType))
}

// makeCacheKey generates the content-addressed key for a cached embedding.
// Content, not identity, is the cache key: identical canonical text shares
// one record regardless of owner.
func makeCacheKey(entityType core.EntityType, contentHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", cachePrefix, entityType, contentHash))
}

// makeDateIndexKey builds prefix:user(8):timestamp(8):id(8) with BigEndian
// fields so lexicographic iteration follows chronological order.
func makeDateIndexKey(prefix string, userID core.ID, timestamp time.Time, id core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+24)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(userID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDateIndexKey builds prefix:user(8):timestamp(8) for range seeks.
func makePartialDateIndexKey(prefix string, userID core.ID, timestamp time.Time) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(userID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}
