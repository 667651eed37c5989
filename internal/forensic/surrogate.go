package forensic

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
)

const (
	// surrogateHeadCap and surrogateTailCap bound how much of a large buffer
	// enters the text surrogate. Metadata, the trailer chain and update
	// markers cluster at both ends of a PDF, so the middle of a very large
	// file contributes little beyond stream bodies.
	surrogateHeadCap = 4 * 1024 * 1024
	surrogateTailCap = 1 * 1024 * 1024

	// maxInflatedStream bounds which compressed streams get inflated into
	// the surrogate. Large streams are almost always page content or
	// images, not metadata.
	maxInflatedStream = 256 * 1024

	// maxSurrogateSize caps the final surrogate.
	maxSurrogateSize = 16 * 1024 * 1024
)

var (
	streamBodyRe = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	xmpPacketRe  = regexp.MustCompile(`(?s)<\?xpacket begin.*?<\?xpacket end[^>]*>`)
	xmpMetaRe    = regexp.MustCompile(`(?s)<x:xmpmeta.*?</x:xmpmeta>`)
)

// BuildSurrogate builds the bounded, regex-scannable textual view of a PDF
// buffer: a head/tail byte window, small inflated FlateDecode streams, and
// the embedded XMP packet if one exists outside the window.
//
// The surrogate is a heuristic surface, not a parse: binary stream bodies
// that coincidentally match token patterns can distort pattern counts. That
// imprecision is accepted in exchange for tolerating malformed files.
func BuildSurrogate(raw []byte) string {
	var buf bytes.Buffer

	if len(raw) <= surrogateHeadCap+surrogateTailCap {
		buf.Write(raw)
	} else {
		buf.Write(raw[:surrogateHeadCap])
		buf.WriteByte('\n')
		buf.Write(raw[len(raw)-surrogateTailCap:])
	}

	appendInflatedStreams(&buf, raw)
	appendXMPPacket(&buf, raw)

	if buf.Len() > maxSurrogateSize {
		return buf.String()[:maxSurrogateSize]
	}
	return buf.String()
}

// appendInflatedStreams inflates small zlib-compressed stream bodies and
// appends any that decode. Streams that fail to decode are skipped.
func appendInflatedStreams(buf *bytes.Buffer, raw []byte) {
	for _, m := range streamBodyRe.FindAllSubmatchIndex(raw, -1) {
		body := raw[m[2]:m[3]]
		if len(body) == 0 || len(body) > maxInflatedStream {
			continue
		}
		// FlateDecode bodies start with a zlib header; anything else is a
		// different filter and not worth a decode attempt.
		if body[0] != 0x78 {
			continue
		}
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			continue
		}
		inflated, err := io.ReadAll(io.LimitReader(zr, maxInflatedStream))
		zr.Close()
		if err != nil && len(inflated) == 0 {
			continue
		}
		buf.WriteByte('\n')
		buf.Write(inflated)
		if buf.Len() > maxSurrogateSize {
			return
		}
	}
}

// appendXMPPacket carves the embedded metadata packet out of the raw buffer
// so it is present even when it sits outside the head/tail window.
func appendXMPPacket(buf *bytes.Buffer, raw []byte) {
	packet := xmpPacketRe.Find(raw)
	if packet == nil {
		packet = xmpMetaRe.Find(raw)
	}
	if packet == nil {
		return
	}
	buf.WriteByte('\n')
	buf.Write(packet)
}

// XMPPacket returns the embedded metadata packet from a surrogate, or the
// empty string when none is present.
func XMPPacket(surrogate string) string {
	if m := xmpPacketRe.FindString(surrogate); m != "" {
		return m
	}
	return xmpMetaRe.FindString(surrogate)
}
