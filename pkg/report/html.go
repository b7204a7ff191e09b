package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/ja7ad/tickstat/pkg/monitor"
)

// DefaultHTMLPoints is the chart window used by the CLI: one hour of ticks
// at the default interval.
const DefaultHTMLPoints = 3600

// HTML collects the series of successful ticks and renders a chart page on
// Close. With a positive limit only the newest limit ticks are kept; with 0
// every tick is held in memory until Close.
type HTML struct {
	session string
	path    string
	w       io.Writer
	limit   int

	labels []string
	user   []opts.LineData
	system []opts.LineData
	iowait []opts.LineData
	busy   []opts.LineData
	cores  [][]opts.LineData
}

// NewHTML renders to path on Close. Nothing is created before then.
func NewHTML(path string, session uuid.UUID, limit int) *HTML {
	return &HTML{session: session.String(), path: path, limit: max(limit, 0)}
}

func newHTML(w io.Writer, session uuid.UUID, limit int) *HTML {
	return &HTML{session: session.String(), w: w, limit: max(limit, 0)}
}

func (h *HTML) Write(r monitor.Result) error {
	if r.Err != nil {
		return nil
	}
	s := r.Sample
	c := s.System.CPU
	h.labels = append(h.labels, s.At.Format("15:04:05.000"))
	h.user = append(h.user, opts.LineData{Value: c.User})
	h.system = append(h.system, opts.LineData{Value: c.System})
	h.iowait = append(h.iowait, opts.LineData{Value: c.IOWait})
	h.busy = append(h.busy, opts.LineData{Value: c.Busy()})

	// cores missing from a tick (hot-plug) keep a gap
	for len(h.cores) < len(s.System.CPUs) {
		h.cores = append(h.cores, make([]opts.LineData, len(h.labels)-1))
	}
	for i := range h.cores {
		v := opts.LineData{}
		if i < len(s.System.CPUs) {
			v.Value = s.System.CPUs[i].Busy()
		}
		h.cores[i] = append(h.cores[i], v)
	}
	h.trim()
	return nil
}

// trim drops the oldest ticks beyond the limit.
func (h *HTML) trim() {
	n := len(h.labels) - h.limit
	if h.limit == 0 || n <= 0 {
		return
	}
	h.labels = h.labels[n:]
	h.user = h.user[n:]
	h.system = h.system[n:]
	h.iowait = h.iowait[n:]
	h.busy = h.busy[n:]
	for i := range h.cores {
		h.cores[i] = h.cores[i][n:]
	}
}

// Ticks is the number of collected ticks.
func (h *HTML) Ticks() int { return len(h.labels) }

func (h *HTML) lineChart(title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "session " + h.session}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)
	line.SetXAxis(h.labels)
	return line
}

// Render writes the page to w.
func (h *HTML) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("tickstat - %s", h.session)

	system := h.lineChart("CPU (all)")
	system.AddSeries("user", h.user).
		AddSeries("system", h.system).
		AddSeries("iowait", h.iowait).
		AddSeries("busy", h.busy,
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}))
	system.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	page.AddCharts(system)

	if len(h.cores) > 0 {
		cores := h.lineChart("Busy per core")
		for i, data := range h.cores {
			cores.AddSeries("cpu"+strconv.Itoa(i), data)
		}
		page.AddCharts(cores)
	}

	return page.Render(w)
}

func (h *HTML) Close() error {
	if h.w != nil {
		return h.Render(h.w)
	}
	f, err := create(h.path)
	if err != nil {
		return err
	}
	if err := h.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render html: %w", err)
	}
	return f.Close()
}
