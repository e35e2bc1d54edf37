package audit

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lox/blackjack/internal/game"
)

const (
	// MaxPlayerScores bounds the score list of a decoded record. A round has
	// at most two hands; anything near this limit is corrupt.
	MaxPlayerScores = 16
	// MaxPositionIDLen bounds the table identifier in page packets.
	MaxPositionIDLen = 64

	maxVarIntLen = 5
)

var (
	// ErrDecode is wrapped by every decode failure.
	ErrDecode = errors.New("audit decode")

	ErrTruncated          = fmt.Errorf("%w: truncated input", ErrDecode)
	ErrVarIntTooLong      = fmt.Errorf("%w: varint too long", ErrDecode)
	ErrScoreCountTooLarge = fmt.Errorf("%w: player score count out of range", ErrDecode)
	ErrBadResult          = fmt.Errorf("%w: unknown result", ErrDecode)
	ErrPageTooLarge       = fmt.Errorf("%w: record count out of range", ErrDecode)
	ErrPositionIDTooLong  = fmt.Errorf("%w: position id out of range", ErrDecode)
)

// AppendVarInt appends v as a 32-bit LEB128 varint. Negative values take
// five bytes.
func AppendVarInt(dst []byte, v int32) []byte {
	return binary.AppendUvarint(dst, uint64(uint32(v)))
}

// AppendInt appends v as a varint, truncated to 32 bits.
func AppendInt(dst []byte, v int) []byte {
	return AppendVarInt(dst, int32(v))
}

func appendBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func appendInt64(dst []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(v))
}

func appendString(dst []byte, s string) []byte {
	dst = AppendInt(dst, len(s))
	return append(dst, s...)
}

// Reader decodes values from a byte slice in order.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

// ReadVarInt reads a 32-bit LEB128 varint.
func (r *Reader) ReadVarInt() (int32, error) {
	var v uint32
	for i := range maxVarIntLen {
		if r.off >= len(r.buf) {
			return 0, ErrTruncated
		}
		b := r.buf[r.off]
		r.off++
		if i == maxVarIntLen-1 && b > 0x0f {
			return 0, ErrVarIntTooLong
		}
		v |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(v), nil
		}
	}
	return 0, ErrVarIntTooLong
}

// ReadInt reads a varint as an int.
func (r *Reader) ReadInt() (int, error) {
	v, err := r.ReadVarInt()
	return int(v), err
}

// ReadInt64 reads a big-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	if r.Len() < 8 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return int64(v), nil
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	if r.Len() < 1 {
		return false, ErrTruncated
	}
	b := r.buf[r.off]
	r.off++
	return b != 0, nil
}

func (r *Reader) readString(limit int) (string, error) {
	n, err := r.ReadInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > limit {
		return "", fmt.Errorf("%w: %d bytes", ErrPositionIDTooLong, n)
	}
	if r.Len() < n {
		return "", ErrTruncated
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

// AppendRecord appends the binary form of rec to dst.
func AppendRecord(dst []byte, rec Record) []byte {
	dst = appendInt64(dst, rec.StartMillis)
	dst = appendInt64(dst, rec.EndMillis)
	dst = AppendInt(dst, int(rec.Result))
	dst = AppendInt(dst, rec.Bet)
	dst = AppendInt(dst, rec.Payout)
	dst = appendBool(dst, rec.DoubledDown)
	dst = appendBool(dst, rec.Split)
	dst = AppendInt(dst, rec.DealerScore)
	dst = AppendInt(dst, len(rec.PlayerScores))
	for _, s := range rec.PlayerScores {
		dst = AppendInt(dst, s)
	}
	return dst
}

// MarshalRecord returns the binary form of rec.
func MarshalRecord(rec Record) []byte {
	return AppendRecord(nil, rec)
}

// DecodeRecord reads one record. A score count above MaxPlayerScores is a
// hard error, never a truncated read.
func DecodeRecord(r *Reader) (Record, error) {
	var rec Record
	var err error

	if rec.StartMillis, err = r.ReadInt64(); err != nil {
		return Record{}, err
	}
	if rec.EndMillis, err = r.ReadInt64(); err != nil {
		return Record{}, err
	}
	result, err := r.ReadInt()
	if err != nil {
		return Record{}, err
	}
	rec.Result = game.Result(result)
	if !rec.Result.Valid() {
		return Record{}, fmt.Errorf("%w: ordinal %d", ErrBadResult, result)
	}
	if rec.Bet, err = r.ReadInt(); err != nil {
		return Record{}, err
	}
	if rec.Payout, err = r.ReadInt(); err != nil {
		return Record{}, err
	}
	if rec.DoubledDown, err = r.ReadBool(); err != nil {
		return Record{}, err
	}
	if rec.Split, err = r.ReadBool(); err != nil {
		return Record{}, err
	}
	if rec.DealerScore, err = r.ReadInt(); err != nil {
		return Record{}, err
	}

	n, err := r.ReadInt()
	if err != nil {
		return Record{}, err
	}
	if n < 0 || n > MaxPlayerScores {
		return Record{}, fmt.Errorf("%w: %d (max %d)", ErrScoreCountTooLarge, n, MaxPlayerScores)
	}
	rec.PlayerScores = make([]int, n)
	for i := range n {
		if rec.PlayerScores[i], err = r.ReadInt(); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// UnmarshalRecord decodes a single record from b.
func UnmarshalRecord(b []byte) (Record, error) {
	return DecodeRecord(NewReader(b))
}

// PageRequest asks a table for one page of its audit log.
type PageRequest struct {
	PositionID string
	Page       int
	PageSize   int
}

// AppendPageRequest appends the binary form of req to dst.
func AppendPageRequest(dst []byte, req PageRequest) []byte {
	dst = appendString(dst, req.PositionID)
	dst = AppendInt(dst, req.Page)
	return AppendInt(dst, req.PageSize)
}

// DecodePageRequest decodes a page request.
func DecodePageRequest(b []byte) (PageRequest, error) {
	r := NewReader(b)
	var req PageRequest
	var err error
	if req.PositionID, err = r.readString(MaxPositionIDLen); err != nil {
		return PageRequest{}, err
	}
	if req.Page, err = r.ReadInt(); err != nil {
		return PageRequest{}, err
	}
	if req.PageSize, err = r.ReadInt(); err != nil {
		return PageRequest{}, err
	}
	return req, nil
}

// PageResponse is one page of audit records, newest first. Total is the size
// of the whole log.
type PageResponse struct {
	PositionID string
	Page       int
	PageSize   int
	Total      int
	Records    []Record
}

// Pages returns the number of pages in the log at this page size.
func (p PageResponse) Pages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// AppendPageResponse appends the binary form of resp to dst.
func AppendPageResponse(dst []byte, resp PageResponse) []byte {
	dst = appendString(dst, resp.PositionID)
	dst = AppendInt(dst, resp.Page)
	dst = AppendInt(dst, resp.PageSize)
	dst = AppendInt(dst, resp.Total)
	dst = AppendInt(dst, len(resp.Records))
	for _, rec := range resp.Records {
		dst = AppendRecord(dst, rec)
	}
	return dst
}

// DecodePageResponse decodes a page response. More than MaxPageSize records
// is rejected.
func DecodePageResponse(b []byte) (PageResponse, error) {
	r := NewReader(b)
	var resp PageResponse
	var err error
	if resp.PositionID, err = r.readString(MaxPositionIDLen); err != nil {
		return PageResponse{}, err
	}
	if resp.Page, err = r.ReadInt(); err != nil {
		return PageResponse{}, err
	}
	if resp.PageSize, err = r.ReadInt(); err != nil {
		return PageResponse{}, err
	}
	if resp.Total, err = r.ReadInt(); err != nil {
		return PageResponse{}, err
	}
	n, err := r.ReadInt()
	if err != nil {
		return PageResponse{}, err
	}
	if n < 0 || n > MaxPageSize {
		return PageResponse{}, fmt.Errorf("%w: %d (max %d)", ErrPageTooLarge, n, MaxPageSize)
	}
	resp.Records = make([]Record, 0, n)
	for range n {
		rec, err := DecodeRecord(r)
		if err != nil {
			return PageResponse{}, fmt.Errorf("record %d: %w", len(resp.Records), err)
		}
		resp.Records = append(resp.Records, rec)
	}
	return resp, nil
}
