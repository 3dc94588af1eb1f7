package repository

// DefaultChunkSize matches the multi-value filter cap of the legacy record
// store; ID sets above it are partitioned and queried per chunk.
const DefaultChunkSize = 10

func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
