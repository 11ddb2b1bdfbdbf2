package parser

// Emission order is decode order. With B-frames, the packet with the highest
// presentation time is not necessarily the last line of a bucket, so seam
// checks that work on presentation time search explicitly.

// MaxByPTS returns the record with the greatest presentation time.
//
// Lines that do not parse are skipped. Returns false if no line parses.
// On ties the first record seen wins.
func MaxByPTS(lines []string) (PacketRecord, bool) {
	return extremeByPTS(lines, func(candidate, best float64) bool {
		return candidate > best
	})
}

// MinByPTS returns the record with the smallest presentation time.
//
// Lines that do not parse are skipped. Returns false if no line parses.
// On ties the first record seen wins.
func MinByPTS(lines []string) (PacketRecord, bool) {
	return extremeByPTS(lines, func(candidate, best float64) bool {
		return candidate < best
	})
}

func extremeByPTS(lines []string, better func(candidate, best float64) bool) (PacketRecord, bool) {
	var best PacketRecord
	found := false

	for _, line := range lines {
		rec, ok := ParsePacket(line)
		if !ok {
			continue
		}
		if !found || better(rec.PTS, best.PTS) {
			best = rec
			found = true
		}
	}

	return best, found
}

// FirstParsed returns up to n parsed records in list (decode) order.
func FirstParsed(lines []string, n int) []PacketRecord {
	if n <= 0 {
		return nil
	}
	records := make([]PacketRecord, 0, n)
	for _, line := range lines {
		rec, ok := ParsePacket(line)
		if !ok {
			continue
		}
		records = append(records, rec)
		if len(records) == n {
			break
		}
	}
	return records
}
