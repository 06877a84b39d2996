package testsupport

import (
	"strconv"
)

// FFmpegCaptureScript copies stdin into the last argument (the output path),
// so tests can inspect exactly which bytes were streamed.
const FFmpegCaptureScript = `for last; do :; done
cat > "$last"
`

// FFmpegEarlyCloseScript reads n bytes of stdin, then exits successfully
// without reading more, closing the pipe mid-stream.
func FFmpegEarlyCloseScript(n int) string {
	return "head -c " + strconv.Itoa(n) + " >/dev/null\nexit 0\n"
}

// FFmpegFailScript exits immediately with status 1 after printing to stderr.
const FFmpegFailScript = `echo "Unknown encoder 'libx264'" >&2
exit 1
`

// FFmpegStallScript drains stdin and then hangs until interrupted.
const FFmpegStallScript = `cat > /dev/null
trap 'echo interrupted >&2; exit 255' INT
while :; do sleep 1; done
`

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
