package aisdecoder

import (
	"fmt"
	"strings"

	ais "github.com/BertoldVdb/go-ais"
)

// Encode armors a position report as a sentence payload. It supports the same
// message types as DecodePayload and returns the payload with its fill bits.
// Negative SOG/COG encode as not available.
func Encode(r PositionReport) (payload string, fill int, err error) {
	var pkt ais.Packet
	header := ais.Header{MessageID: uint8(r.Type), UserID: r.MMSI}
	switch r.Type {
	case 1, 2, 3:
		pkt = &ais.PositionReport{
			Header:             header,
			Valid:              true,
			NavigationalStatus: uint8(r.NavStatus),
			RateOfTurn:         rotNotAvailable,
			Sog:                ais.Field10(orNotAvailable(r.SOG, sogNotAvailable)),
			Longitude:          ais.FieldLatLonFine(r.Lon),
			Latitude:           ais.FieldLatLonFine(r.Lat),
			Cog:                ais.Field10(orNotAvailable(r.COG, cogNotAvailable)),
			TrueHeading:        uint16(r.Heading),
			Timestamp:          uint8(r.Second),
		}
	case 18:
		pkt = &ais.StandardClassBPositionReport{
			Header:      header,
			Valid:       true,
			Sog:         ais.Field10(orNotAvailable(r.SOG, sogNotAvailable)),
			Longitude:   ais.FieldLatLonFine(r.Lon),
			Latitude:    ais.FieldLatLonFine(r.Lat),
			Cog:         ais.Field10(orNotAvailable(r.COG, cogNotAvailable)),
			TrueHeading: uint16(r.Heading),
			Timestamp:   uint8(r.Second),
		}
	case 19:
		pkt = &ais.ExtendedClassBPositionReport{
			Header:      header,
			Valid:       true,
			Sog:         ais.Field10(orNotAvailable(r.SOG, sogNotAvailable)),
			Longitude:   ais.FieldLatLonFine(r.Lon),
			Latitude:    ais.FieldLatLonFine(r.Lat),
			Cog:         ais.Field10(orNotAvailable(r.COG, cogNotAvailable)),
			TrueHeading: uint16(r.Heading),
			Timestamp:   uint8(r.Second),
			Name:        strings.ToUpper(r.Name),
			Type:        uint8(r.ShipType),
		}
	case 27:
		lr := &ais.LongRangeAisBroadcastMessage{
			Header:             header,
			Valid:              true,
			NavigationalStatus: uint8(r.NavStatus),
			Longitude:          ais.FieldLatLonCoarse(r.Lon),
			Latitude:           ais.FieldLatLonCoarse(r.Lat),
			Sog:                longSOGNotAvailable,
			Cog:                longCOGNotAvailable,
		}
		if r.SOG >= 0 {
			lr.Sog = uint8(min(r.SOG+0.5, 62))
		}
		if r.COG >= 0 {
			lr.Cog = uint16(int(r.COG+0.5) % 360)
		}
		pkt = lr
	default:
		return "", 0, fmt.Errorf("encode message type %d: unsupported", r.Type)
	}

	b := newCodec().EncodePacket(pkt)
	if len(b) == 0 {
		return "", 0, fmt.Errorf("encode message type %d: codec produced no bits", r.Type)
	}
	payload, fill = armor(b)
	return payload, fill, nil
}

// orNotAvailable maps a negative value to the scaled not-available code.
func orNotAvailable(v float64, notAvailable int) float64 {
	if v < 0 {
		return float64(notAvailable) / 10
	}
	return v
}

// armor packs one-bit-per-byte codec output into six-bit payload characters,
// zero-padding the last one.
func armor(b []byte) (string, int) {
	fill := (6 - len(b)%6) % 6
	var sb strings.Builder
	for i := 0; i < len(b); i += 6 {
		var v byte
		for j := i; j < i+6; j++ {
			v <<= 1
			if j < len(b) {
				v |= b[j] & 1
			}
		}
		if v >= 40 {
			v += 8
		}
		sb.WriteByte(v + '0')
	}
	return sb.String(), fill
}

// Sentences splits a payload into !AIVDM lines of at most maxPayload payload
// characters each, with NMEA checksums. seq is used only for multi-part
// messages.
func Sentences(payload string, fill int, seq int, channel string, maxPayload int) []string {
	if maxPayload < 1 {
		maxPayload = 60
	}
	var chunks []string
	for len(payload) > maxPayload {
		chunks = append(chunks, payload[:maxPayload])
		payload = payload[maxPayload:]
	}
	chunks = append(chunks, payload)

	seqField := ""
	if len(chunks) > 1 {
		seqField = fmt.Sprint(seq % 10)
	}

	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkFill := 0
		if i == len(chunks)-1 {
			chunkFill = fill
		}
		body := fmt.Sprintf("AIVDM,%d,%d,%s,%s,%s,%d", len(chunks), i+1, seqField, channel, chunk, chunkFill)
		out[i] = fmt.Sprintf("!%s*%02X", body, checksum(body))
	}
	return out
}

func checksum(body string) byte {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return cs
}
