package document

import (
	"strconv"
	"time"

	domdoc "github.com/policy-oracle/policyoracle/internal/domain/document"
)

// Hash field names. The FT index schema in repo.go mirrors these.
const (
	fieldTitle     = "title"
	fieldFilePath  = "file_path"
	fieldFileSize  = "file_size"
	fieldPageCount = "page_count"
	fieldStatus    = "status"
	fieldCategory  = "category"
	fieldOwnerID   = "owner_id"
	fieldCreatedAt = "created_at"
)

// buildHashFields converts a domain Document into a flat map for HSET.
func buildHashFields(doc *domdoc.Document) map[string]string {
	return map[string]string{
		fieldTitle:     doc.Title(),
		fieldFilePath:  doc.FilePath(),
		fieldFileSize:  strconv.FormatInt(doc.FileSize(), 10),
		fieldPageCount: itoa(doc.PageCount()),
		fieldStatus:    string(doc.Status()),
		fieldCategory:  doc.Category(),
		fieldOwnerID:   doc.OwnerID(),
		fieldCreatedAt: strconv.FormatInt(doc.CreatedAt().UnixMilli(), 10),
	}
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	fileSize, _ := strconv.ParseInt(m[fieldFileSize], 10, 64)
	pageCount, _ := strconv.Atoi(m[fieldPageCount])
	createdMs, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)

	status := domdoc.Status(m[fieldStatus])
	if !status.Valid() {
		status = domdoc.StatusPending
	}

	return domdoc.Reconstruct(
		id,
		m[fieldTitle],
		m[fieldFilePath],
		fileSize,
		pageCount,
		status,
		m[fieldCategory],
		m[fieldOwnerID],
		time.UnixMilli(createdMs).UTC(),
	)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
