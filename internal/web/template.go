package web

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/sweeney/temp-alarm/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"celsius": func(c float64) string {
		return strconv.FormatFloat(c, 'f', -1, 64) + " °C"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Temperature Alarm</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.alarm { color: red; font-weight: bold; }
.ok { color: green; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Temperature Alarm</h1>

<h2>Reading</h2>
<table>
<tr><th>Temperature</th><td id="temperature">{{if .HaveReading}}{{celsius .TemperatureC}}{{if not .ReadingInRange}} <span class="warn">(out of range)</span>{{end}}{{else}}<span class="warn">no reading</span>{{end}}</td></tr>
<tr><th>Threshold</th><td id="threshold">{{celsius .ThresholdC}}{{if not .ThresholdInRange}} <span class="warn">(out of range)</span>{{end}}</td></tr>
<tr><th>Alarm</th><td id="alarm" class="{{if .Alarm}}alarm{{else}}ok{{end}}">{{if .Alarm}}ON{{else}}OFF{{end}}</td></tr>
{{if .LastSensorError}}<tr><th>Last sensor error</th><td class="warn">{{.LastSensorError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Diagnostics</h2>
<table>
<tr><th>Samples</th><td>{{.Counts.Samples}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
<tr><th>Out of range</th><td>{{.Counts.OutOfRange}}</td></tr>
<tr><th>Threshold changes</th><td>{{.Counts.ThresholdChanges}}</td></tr>
<tr><th>Threshold warnings</th><td>{{.Counts.ThresholdWarnings}}</td></tr>
<tr><th>Dropped</th><td>{{.Dropped}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Cadence</th><td>{{.Config.CadenceMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.SettleMs}}ms settle, {{.Config.LockoutMs}}ms lockout</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Sensor bus</th><td>{{.Config.I2CDevice}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime           time.Duration
		ThresholdInRange bool
	}{
		Snapshot:         snap,
		Uptime:           snap.Uptime(),
		ThresholdInRange: snap.ThresholdInRange(),
	}
	return indexTmpl.Execute(w, data)
}
