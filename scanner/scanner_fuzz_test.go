package scanner

import "testing"

func FuzzScanner(f *testing.F) {
	f.Add([]byte("<< /Type /Page >>"))
	f.Add([]byte("[ 1 2 3 ]"))
	f.Add([]byte("stream\n...data...\nendstream"))
	f.Add([]byte("(Hello World)"))
	f.Add([]byte("<AABBCC>"))
	f.Add([]byte("4 0 R"))

	f.Fuzz(func(t *testing.T, data []byte) {
		s := New(data, Limits{MaxStringLength: 1024, MaxNameLength: 256})
		for i := 0; i < 1<<16; i++ {
			if _, err := s.Next(); err != nil {
				break
			}
		}
	})
}
