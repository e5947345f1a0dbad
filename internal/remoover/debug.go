package remoover

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	ol "github.com/ossrs/go-oryx-lib/logger"
)

// Debug dump file names.
const (
	dumpElements       = "out.json"
	dumpSamples        = "out_samples.json"
	dumpChunks         = "out_chunks.json"
	dumpChunksDuration = "out_chunks_duration.json"
	dumpVideoTrack     = "out_avcc.json"
	dumpAudioTrack     = "out_mp4a.json"
	dumpFileType       = "out_ftyp.bin"
	dumpMovie          = "out_moov.bin"
)

// debugDumper writes intermediate pipeline state. Failures are logged and
// never abort the run.
type debugDumper struct {
	enabled bool
	dir     string
}

func (d debugDumper) writeJSON(name string, v any) {
	if !d.enabled {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		ol.W(nil, fmt.Sprintf("debug dump %s: %v", name, err))
		return
	}
	d.write(name, data)
}

// writeRange dumps length bytes of r starting at offset.
func (d debugDumper) writeRange(name string, r io.ReaderAt, offset, length int64) {
	if !d.enabled || length <= 0 {
		return
	}
	data := make([]byte, length)
	n, err := readFullAt(r, data, offset)
	if err != nil {
		ol.W(nil, fmt.Sprintf("debug dump %s: %v", name, err))
		return
	}
	d.write(name, data[:n])
}

func (d debugDumper) write(name string, data []byte) {
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		ol.W(nil, fmt.Sprintf("debug dump %s: %v", name, err))
		return
	}
	ol.T(nil, fmt.Sprintf("wrote %s (%d bytes)", path, len(data)))
}

type splitChunksDump struct {
	Video []Chunk `json:"video"`
	Audio []Chunk `json:"audio"`
}
