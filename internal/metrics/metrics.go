package metrics

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// SizeSource источник размера растущей таблицы (интернер, палитра)
type SizeSource interface {
	Len() int
}

// Exporter инкапсулирует Prometheus-метрики блок-стейтов и периодически обновляет gauge.
type Exporter struct {
	interner SizeSource
	palette  SizeSource
	proc     *process.Process

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	quit      chan struct{}
	done      chan struct{}

	parsed       prometheus.Counter
	parseErrors  prometheus.Counter
	internedSize prometheus.Gauge
	paletteSize  prometheus.Gauge
	rssBytes     prometheus.Gauge
}

// NewExporter создаёт экспортер и регистрирует метрики в reg.
// palette может быть nil.
func NewExporter(reg prometheus.Registerer, interner, palette SizeSource) *Exporter {
	e := &Exporter{
		interner: interner,
		palette:  palette,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		parsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockstate",
			Name:      "parsed_total",
			Help:      "Число успешно разобранных строк состояний.",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockstate",
			Name:      "parse_errors_total",
			Help:      "Число строк, замещённых состоянием missing из-за ошибки разбора.",
		}),
		internedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockstate",
			Name:      "interned_strings",
			Help:      "Размер таблицы интернированных строк.",
		}),
		paletteSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockstate",
			Name:      "palette_states",
			Help:      "Количество различных состояний в палитре.",
		}),
		rssBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockstate",
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса.",
		}),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		e.proc = proc
	}

	reg.MustRegister(e.parsed, e.parseErrors, e.internedSize, e.paletteSize, e.rssBytes)
	e.Collect()
	return e
}

// ParseSucceeded увеличивает счётчик успешных разборов
func (e *Exporter) ParseSucceeded() {
	e.parsed.Inc()
}

// ParseFailed увеличивает счётчик ошибок разбора
func (e *Exporter) ParseFailed() {
	e.parseErrors.Inc()
}

// Collect обновляет gauge один раз
func (e *Exporter) Collect() {
	if e.interner != nil {
		e.internedSize.Set(float64(e.interner.Len()))
	}
	if e.palette != nil {
		e.paletteSize.Set(float64(e.palette.Len()))
	}
	if e.proc != nil {
		if mem, err := e.proc.MemoryInfo(); err == nil {
			e.rssBytes.Set(float64(mem.RSS))
		}
	}
}

// Start запускает периодическое обновление gauge
// Повторный вызов ничего не делает.
func (e *Exporter) Start(interval time.Duration) {
	e.startOnce.Do(func() {
		e.started.Store(true)
		go e.loop(interval)
	})
}

// Stop останавливает обновление метрик. Безопасен без Start и при повторном вызове.
func (e *Exporter) Stop() {
	e.stopOnce.Do(func() {
		close(e.quit)
		if e.started.Load() {
			<-e.done
		}
	})
}

func (e *Exporter) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Collect()
		case <-e.quit:
			return
		}
	}
}
