package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/wwvb-sensor/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>WWVB Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.sym { font-size: 1.2em; font-weight: bold; }
.healthy { color: green; font-weight: bold; }
.unhealthy { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>WWVB Sensor<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Signal</h2>
<table>
<tr><th>Symbol</th><td id="symbol" class="sym">{{.SymbolString}}</td></tr>
<tr><th>Health</th><td id="health" class="{{if .Healthy}}healthy{{else}}unhealthy{{end}}">{{printf "%.1f" .HealthPercent}}%</td></tr>
<tr><th>Signal</th><td id="signal" class="{{if .Healthy}}healthy{{else}}unhealthy{{end}}">{{if .Healthy}}locked{{else}}degraded{{end}}</td></tr>
<tr><th>Second begins at tick</th><td id="sos">{{.StartOfSecond}}</td></tr>
</table>

<h2>Time</h2>
<table>
{{if .Minute}}<tr><th>UTC</th><td id="minute-utc">{{.Minute.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Broadcast</th><td>{{.Minute}}</td></tr>
<tr><th>Local</th><td>{{.Local}}</td></tr>
<tr><th>DST</th><td>{{.Minute.DST}}</td></tr>
<tr><th>DUT1</th><td>{{.Minute.DUT1}} &times; 0.1 s</td></tr>
<tr><th>Received</th><td>{{uptime .MinuteAge}} ago</td></tr>
{{else}}<tr><th>Minute</th><td id="minute-utc" class="unknown">NOT YET DECODED</td></tr>
{{end}}</table>

<h2>Counters</h2>
<table>
<tr><th>Samples</th><td>{{.Counters.Samples}}</td></tr>
<tr><th>Symbols</th><td id="symbols">{{.Counters.Symbols}}</td></tr>
<tr><th>Frame attempts</th><td>{{.Counters.Attempts}}</td></tr>
<tr><th>Minutes</th><td id="minutes">{{.Counters.Minutes}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td id="mqtt" class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Sample rate</th><td>{{.Config.TicksPerSecond}}/s</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var symEl = document.getElementById("symbol");
  var healthEl = document.getElementById("health");
  var signalEl = document.getElementById("signal");
  var sosEl = document.getElementById("sos");
  var symbolsEl = document.getElementById("symbols");
  var minutesEl = document.getElementById("minutes");
  var minuteEl = document.getElementById("minute-utc");
  var mqttEl = document.getElementById("mqtt");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/live");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        symEl.textContent = msg.symbol;
        healthEl.textContent = msg.health_percent.toFixed(1) + "%";
        healthEl.className = msg.healthy ? "healthy" : "unhealthy";
        signalEl.textContent = msg.healthy ? "locked" : "degraded";
        signalEl.className = msg.healthy ? "healthy" : "unhealthy";
        sosEl.textContent = msg.start_of_second;
        symbolsEl.textContent = msg.symbols;
        minutesEl.textContent = msg.minutes;
        if (msg.minute_utc) {
          minuteEl.textContent = msg.minute_utc;
          minuteEl.className = "";
        }
        mqttEl.textContent = msg.mqtt_connected ? "connected" : "disconnected";
        mqttEl.className = msg.mqtt_connected ? "connected" : "disconnected";
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot carries methods; the template wants plain fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		MinuteAge time.Duration
		Local     string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		MinuteAge: snap.MinuteAge(),
	}
	if snap.Minute != nil {
		loc := snap.Minute.Local(snap.Config.ZoneHours, snap.Config.ObserveDST)
		data.Local = loc.String()
		if loc.DST {
			data.Local += " DST"
		}
	}
	indexTmpl.Execute(w, data)
}
