package tools

func installHints(tool, goos string) []string {
	switch tool {
	case Mesh:
		switch goos {
		case "darwin":
			return []string{"Run: teleop install mesh (downloads Tailscale.pkg)"}
		case "windows":
			return []string{"Install Tailscale: winget install tailscale.tailscale"}
		default:
			return []string{"Run: teleop install mesh (runs the tailscale install script)"}
		}
	case Media:
		switch goos {
		case "darwin":
			return []string{"Run: teleop install media (installs gstreamer via Homebrew)"}
		case "linux":
			return []string{"Install gstreamer with your distro package manager, e.g. sudo apt install gstreamer1.0-tools"}
		default:
			return []string{"Install the GStreamer runtime from gstreamer.freedesktop.org"}
		}
	case Interpreter:
		return []string{"Install Python 3 and make python3 available on PATH"}
	case PackageManager:
		if goos == "darwin" {
			return []string{"teleop install media bootstraps Homebrew when it is missing"}
		}
	}
	return nil
}
