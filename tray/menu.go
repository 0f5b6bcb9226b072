package tray

import (
	"os/exec"
	"runtime"

	"fyne.io/systray"
)

const defaultTooltip = "jargon – dictation"

var (
	mRecord   *systray.MenuItem
	mCopy     *systray.MenuItem
	mSettings *systray.MenuItem
	mTypeInto *systray.MenuItem
	mLogin    *systray.MenuItem
	mUpdate   *systray.MenuItem
)

func onReady() {
	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(defaultTooltip)

	mCopy = systray.AddMenuItem("Copy Last Transcript", "Copy the most recent transcript to the clipboard")
	mCopy.Disable()
	clickLoop(mCopy, func() {
		mu.Lock()
		fn := copyLastFn
		mu.Unlock()
		if fn != nil {
			fn()
		}
	})

	systray.AddSeparator()

	mRecord = systray.AddMenuItem("Start Dictation", "Start or stop dictation")
	clickLoop(mRecord, func() {
		mu.Lock()
		rec := recording
		start, stop := recordFn, stopFn
		mu.Unlock()
		if rec {
			if stop != nil {
				stop()
			}
		} else if start != nil {
			start()
		}
	})

	mSettings = systray.AddMenuItem("Settings", "Settings")

	mTypeInto = mSettings.AddSubMenuItemCheckbox("Type into active app", "Type transcripts into the focused application", typeIntoOn)
	clickLoop(mTypeInto, func() {
		if mTypeInto.Checked() {
			mTypeInto.Uncheck()
		} else {
			mTypeInto.Check()
		}
		mu.Lock()
		cb := typeIntoCb
		mu.Unlock()
		if cb != nil {
			cb(mTypeInto.Checked())
		}
	})

	mLogin = mSettings.AddSubMenuItemCheckbox("Run in background", "Keep jargon running after login", loginOn)
	clickLoop(mLogin, func() {
		if mLogin.Checked() {
			mLogin.Uncheck()
		} else {
			mLogin.Check()
		}
		mu.Lock()
		cb := loginCb
		mu.Unlock()
		if cb != nil {
			cb(mLogin.Checked())
		}
	})

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit jargon")
	clickLoop(mQuit, Quit)
}

func clickLoop(item *systray.MenuItem, fn func()) {
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}

func updateRecordingIcon(rec bool) {
	if rec {
		systray.SetIcon(iconRecHi)
		if mRecord != nil {
			mRecord.SetTitle("Stop Dictation")
		}
	} else {
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
		if mRecord != nil {
			mRecord.SetTitle("Start Dictation")
		}
	}
}

func updateTooltip(msg string) {
	systray.SetTooltip(msg)
}

func updateCopyLastTitle(title string) {
	if mCopy != nil {
		mCopy.SetTitle(title)
		mCopy.Enable()
	}
}

func updateTypeIntoItem(on bool) {
	if mTypeInto == nil {
		return
	}
	if on {
		mTypeInto.Check()
	} else {
		mTypeInto.Uncheck()
	}
}

func updateLoginItem(on bool) {
	if mLogin == nil {
		return
	}
	if on {
		mLogin.Check()
	} else {
		mLogin.Uncheck()
	}
}

func addUpdateMenuItem(version string) {
	if mUpdate != nil {
		mUpdate.SetTitle("⚠ Update available: " + version)
		mUpdate.Show()
		return
	}
	if mSettings == nil {
		return
	}
	mUpdate = mSettings.AddSubMenuItem("Update available: "+version, "Open release page")
	clickLoop(mUpdate, func() {
		openURL("https://github.com/jargon-app/jargon/releases/tag/" + version)
	})
}

func openURL(url string) {
	switch runtime.GOOS {
	case "darwin":
		exec.Command("open", url).Start()
	case "windows":
		exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		exec.Command("xdg-open", url).Start()
	}
}
