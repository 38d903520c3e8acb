package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored domain types. Field order is
// part of the storage format; append new fields at the end only.

var (
	// IDMUS serializes ID values.
	IDMUS = idMUS{}
	// DocumentStatusMUS serializes DocumentStatus values.
	DocumentStatusMUS = statusMUS{}
	// DocumentMUS serializes Document values.
	DocumentMUS = documentMUS{}
	// TaxonomyTermMUS serializes TaxonomyTerm values.
	TaxonomyTermMUS = taxonomyTermMUS{}
	// TaxonomySynonymMUS serializes TaxonomySynonym values.
	TaxonomySynonymMUS = taxonomySynonymMUS{}
	// AnalysisRecordMUS serializes AnalysisRecord values.
	AnalysisRecordMUS = analysisRecordMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type statusMUS struct{}

func (statusMUS) Marshal(s DocumentStatus, bs []byte) int {
	return varint.Int.Marshal(int(s), bs)
}

func (statusMUS) Unmarshal(bs []byte) (DocumentStatus, int, error) {
	v, n, err := varint.Int.Unmarshal(bs)
	return DocumentStatus(v), n, err
}

func (statusMUS) Size(s DocumentStatus) int {
	return varint.Int.Size(int(s))
}

// zeroUnixMicro is the marker for the zero time.Time.
var zeroUnixMicro = time.Time{}.UnixMicro()

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if v == zeroUnixMicro {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalStrings(ss []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(ss), bs)
	for _, s := range ss {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (ss []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	ss = make([]string, length)
	for i := 0; i < length; i++ {
		var n1 int
		ss[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return ss, n, nil
}

func sizeStrings(ss []string) (size int) {
	size = varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var n1 int
		v[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.StorageRef, bs[n:])
	n += DocumentStatusMUS.Marshal(d.Status, bs[n:])
	n += varint.Int.Marshal(d.Progress, bs[n:])
	n += ord.String.Marshal(d.Text, bs[n:])
	n += AnalysisRecordMUS.Marshal(d.Analysis, bs[n:])
	n += marshalStrings(d.Keywords, bs[n:])
	n += marshalStrings(d.Categories, bs[n:])
	n += marshalVector(d.Vector, bs[n:])
	n += ord.String.Marshal(d.SearchText, bs[n:])
	n += ord.String.Marshal(d.Error, bs[n:])
	n += marshalTime(d.CreatedAt, bs[n:])
	n += marshalTime(d.UpdatedAt, bs[n:])
	n += marshalTime(d.ProcessedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.StorageRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Status, n1, err = DocumentStatusMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Progress, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Analysis, n1, err = AnalysisRecordMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Keywords, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Categories, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.SearchText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Error, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.ProcessedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Filename)
	size += ord.String.Size(d.StorageRef)
	size += DocumentStatusMUS.Size(d.Status)
	size += varint.Int.Size(d.Progress)
	size += ord.String.Size(d.Text)
	size += AnalysisRecordMUS.Size(d.Analysis)
	size += sizeStrings(d.Keywords)
	size += sizeStrings(d.Categories)
	size += sizeVector(d.Vector)
	size += ord.String.Size(d.SearchText)
	size += ord.String.Size(d.Error)
	size += sizeTime(d.CreatedAt)
	size += sizeTime(d.UpdatedAt)
	size += sizeTime(d.ProcessedAt)
	return size
}

type taxonomyTermMUS struct{}

func (taxonomyTermMUS) Marshal(t TaxonomyTerm, bs []byte) (n int) {
	n = IDMUS.Marshal(t.Id, bs)
	n += ord.String.Marshal(t.Term, bs[n:])
	n += ord.String.Marshal(t.PrimaryCategory, bs[n:])
	n += ord.String.Marshal(t.Subcategory, bs[n:])
	n += IDMUS.Marshal(t.ParentId, bs[n:])
	n += marshalTime(t.InsertedAt, bs[n:])
	n += marshalTime(t.UpdatedAt, bs[n:])
	return n
}

func (taxonomyTermMUS) Unmarshal(bs []byte) (t TaxonomyTerm, n int, err error) {
	var n1 int
	if t.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if t.Term, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.PrimaryCategory, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.Subcategory, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.ParentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	if t.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return t, n + n1, err
	}
	n += n1
	return t, n, nil
}

func (taxonomyTermMUS) Size(t TaxonomyTerm) (size int) {
	size = IDMUS.Size(t.Id)
	size += ord.String.Size(t.Term)
	size += ord.String.Size(t.PrimaryCategory)
	size += ord.String.Size(t.Subcategory)
	size += IDMUS.Size(t.ParentId)
	size += sizeTime(t.InsertedAt)
	size += sizeTime(t.UpdatedAt)
	return size
}

type taxonomySynonymMUS struct{}

func (taxonomySynonymMUS) Marshal(s TaxonomySynonym, bs []byte) (n int) {
	n = IDMUS.Marshal(s.Id, bs)
	n += ord.String.Marshal(s.Synonym, bs[n:])
	n += IDMUS.Marshal(s.TermId, bs[n:])
	n += marshalTime(s.InsertedAt, bs[n:])
	return n
}

func (taxonomySynonymMUS) Unmarshal(bs []byte) (s TaxonomySynonym, n int, err error) {
	var n1 int
	if s.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if s.Synonym, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.TermId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	if s.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	return s, n, nil
}

func (taxonomySynonymMUS) Size(s TaxonomySynonym) (size int) {
	size = IDMUS.Size(s.Id)
	size += ord.String.Size(s.Synonym)
	size += IDMUS.Size(s.TermId)
	size += sizeTime(s.InsertedAt)
	return size
}
