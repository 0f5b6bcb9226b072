package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/term"

	"jargon/bridge"
	"jargon/bus"
	"jargon/cue"
	"jargon/doctor"
	"jargon/feed"
	"jargon/history"
	"jargon/hotkey"
	"jargon/log"
	"jargon/login"
	"jargon/overlay"
	"jargon/paste"
	"jargon/settings"
	"jargon/shutdown"
	"jargon/store"
	"jargon/tray"
	"jargon/update"
)

var version = "dev"

var guiMode bool

// appState holds the live dictation config shared between the TUI,
// the tray, and the host bridge callbacks.
type appState struct {
	mu  sync.Mutex
	cfg settings.Config
}

func (s *appState) Get() settings.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *appState) Set(cfg settings.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// shellDeps is what the TUI needs from the rest of the app.
type shellDeps struct {
	hist  *history.Manager
	br    bridge.Bridge
	b     *bus.Bus
	state *appState
	save  func(settings.Config)
}

func (d *shellDeps) toggleDictation(recording bool) {
	cmd := bridge.CmdSTTStart
	ev := bus.EventDictationStart
	if recording {
		cmd = bridge.CmdSTTStop
		ev = bus.EventDictationStop
	}
	if err := d.br.Invoke(cmd, nil); err != nil && d.br.Available() {
		log.Warnf("host %s failed: %v", cmd, err)
	}
	d.b.Publish(ev, bus.Payload{})
}

func (d *shellDeps) restartEngine() {
	if err := d.br.Invoke(bridge.CmdSTTRestart, nil); err != nil && d.br.Available() {
		log.Warnf("host %s failed: %v", bridge.CmdSTTRestart, err)
	}
}

func (d *shellDeps) closeWindow()    { d.br.Invoke(bridge.CmdWindowClose, nil) }
func (d *shellDeps) minimizeWindow() { d.br.Invoke(bridge.CmdWindowMinimize, nil) }
func (d *shellDeps) maximizeWindow() { d.br.Invoke(bridge.CmdWindowMaximize, nil) }

var (
	shutdownOnce sync.Once

	appHist    *history.Manager
	appClosers []func()
	closersMu  sync.Mutex
)

func onShutdown(fn func()) {
	closersMu.Lock()
	appClosers = append(appClosers, fn)
	closersMu.Unlock()
}

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		closersMu.Lock()
		closers := appClosers
		closersMu.Unlock()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if appHist != nil && appHist.Appended() > 0 {
			log.SessionEnd(appHist.Appended())
		}
		log.Close()
		tray.Quit()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// initCrashLog routes runtime panics to crash_log.txt in the default
// log directory. Called before any CGO code runs; run() re-resolves
// the directory once flags are parsed.
func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		return
	}
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		runUpdate()
		return
	}

	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	nocueFlag := flag.Bool("nocue", false, "Disable start/stop sound cues")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("jargon %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	storeDir, err := store.ResolveDir()
	if err != nil {
		log.Errorf("store dir error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to resolve data directory: %v\n", err)
		os.Exit(1)
	}
	st, err := store.Open(storeDir)
	if err != nil {
		log.Errorf("store open error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to open data directory: %v\n", err)
		os.Exit(1)
	}

	state := &appState{cfg: settings.Load(st)}

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*tuiFlag && state.Get().RunInBackground && os.Getenv("_JARGON_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_JARGON_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	b := bus.New()

	br, brErr := bridge.Detect()
	if brErr != nil {
		log.Warnf("host bridge unavailable: %v", brErr)
	}

	if br.Available() {
		if err := settings.Apply(br, state.Get()); err != nil {
			log.Warnf("pushing config to host: %v", err)
		}
	}

	hist := history.NewManager(st)
	hist.Attach(b)
	appHist = hist
	onShutdown(hist.Close)

	if *nocueFlag {
		cue.Disable()
	}
	cues := cue.NewTrigger()
	cues.Attach(b)
	onShutdown(cues.Close)

	ov := overlay.NewController(br)
	ov.Attach(b)
	onShutdown(ov.Close)

	typer := paste.NewTyper(func() bool { return state.Get().TypeIntoActiveApp })
	typer.Attach(b)
	onShutdown(typer.Close)

	if reader, err := feed.Attach(b); err != nil {
		log.Warnf("host event stream unavailable: %v", err)
	} else {
		onShutdown(func() { reader.Close() })
	}

	// Push-to-talk, rebindable from the settings page.
	var pttMu sync.Mutex
	var activePTT *hotkey.PTT
	rebind := func(chord string) {
		binding, err := hotkey.ParseBinding(chord)
		if err != nil {
			log.Warnf("hotkey %q rejected: %v", chord, err)
			return
		}
		pttMu.Lock()
		defer pttMu.Unlock()
		if activePTT != nil {
			activePTT.Close()
			activePTT = nil
		}
		ptt := hotkey.NewPTT(hotkey.New(binding), br, b)
		if err := ptt.Start(); err != nil {
			log.Warnf("hotkey register error: %v", err)
			return
		}
		log.Info("hotkey_bound: " + chord)
		activePTT = ptt
	}
	rebind(state.Get().Hotkey)
	onShutdown(func() {
		pttMu.Lock()
		defer pttMu.Unlock()
		if activePTT != nil {
			activePTT.Close()
			activePTT = nil
		}
	})

	applyConfig := func(cfg settings.Config) {
		old := state.Get()
		state.Set(cfg)
		if err := settings.Save(st, cfg); err != nil {
			log.Errorf("saving settings: %v", err)
		}
		if br.Available() {
			if err := settings.Apply(br, cfg); err != nil {
				log.Warnf("pushing config to host: %v", err)
			}
		}
		if cfg.Hotkey != old.Hotkey {
			rebind(cfg.Hotkey)
		}
		if cfg.RunInBackground != old.RunInBackground {
			if err := login.SetEnabled(cfg.RunInBackground); err != nil {
				log.Warnf("login item: %v", err)
			}
		}
		tray.SetTypeInto(cfg.TypeIntoActiveApp)
		tuiSend(ConfigMsg{Cfg: cfg})
	}

	// Display sinks
	var sinks multiSink
	if *tuiFlag {
		sinks = append(sinks, tuiSink{})
	}
	if guiMode && guiApp != nil {
		sinks = append(sinks, guiApp)
	}

	b.Subscribe(bus.EventDictationStart, func(bus.Payload) {
		sinks.DictationStart()
		tray.SetRecording(true)
	})
	b.Subscribe(bus.EventDictationStop, func(bus.Payload) {
		sinks.DictationStop()
		tray.SetRecording(false)
	})
	b.Subscribe(bus.EventEngineLog, func(p bus.Payload) {
		log.EngineLine(p.Stream, p.Line)
		sinks.EngineLine(p.Stream, p.Line)
	})
	hist.OnChange(func(entries []history.Entry) {
		sinks.HistoryChanged(entries)
		if len(entries) > 0 {
			tray.SetLastTranscript(entries[0].Text)
		}
	})
	hist.OnFeedback(func(copiedID string) {
		sinks.CopyFeedback(copiedID)
	})
	ov.OnState(func(visible, hovered bool) {
		sinks.OverlayState(visible, hovered)
	})

	deps := &shellDeps{hist: hist, br: br, b: b, state: state, save: applyConfig}

	tray.SetTypeInto(state.Get().TypeIntoActiveApp)
	tray.OnTypeInto(func(on bool) {
		cfg := state.Get()
		cfg.TypeIntoActiveApp = on
		applyConfig(cfg)
	})
	tray.SetLogin(state.Get().RunInBackground)
	tray.OnLogin(func(on bool) error {
		cfg := state.Get()
		cfg.RunInBackground = on
		applyConfig(cfg)
		return nil
	})
	tray.OnCopyLast(func() {
		entries := hist.Entries()
		if len(entries) > 0 {
			hist.Copy(entries[0].ID, entries[0].Text)
		}
	})
	tray.OnRecord(
		func() { deps.toggleDictation(false) },
		func() { deps.toggleDictation(true) },
	)
	if entries := hist.Entries(); len(entries) > 0 {
		tray.SetLastTranscript(entries[0].Text)
	}
	trayQuit := tray.Init()

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(UpdateAvailableMsg{Version: rel.Version})
		tray.SetUpdateAvailable(rel.Version)
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-trayQuit:
		}
		gracefulShutdown()
	}()

	bridgeDesc := "none"
	if br.Available() {
		bridgeDesc = "pipe"
	}
	log.SessionStart(bridgeDesc, hist.Len())

	if *tuiFlag && term.IsTerminal(int(os.Stdout.Fd())) {
		tuiMu.Lock()
		tuiProgram = NewShellProgram(deps)
		tuiMu.Unlock()
		go tuiPump()

		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
			os.Exit(1)
		}
		gracefulShutdown()
		return
	}

	// Headless: block until a signal or the tray quits.
	select {}
}

func runUpdate() {
	if version == "dev" {
		fmt.Println("Dev build — cannot check for updates.")
		os.Exit(0)
	}
	fmt.Printf("jargon %s — checking for updates...\n", version)
	rel, err := update.CheckLatest(version)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if rel == nil {
		fmt.Println("Already up to date.")
		os.Exit(0)
	}
	fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted.")
		os.Exit(0)
	}
	fmt.Printf("Downloading %s...\n", rel.Version)
	if err := update.Apply(rel); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated to %s\n", rel.Version)
	os.Exit(0)
}
