package domain

// TargetKey returns the serialization key used to keep two mutating jobs off
// the same formula or tap at once.
func TargetKey(class CommandClass, target string) string {
	switch {
	case target == "":
		return "class:" + class.String()
	case class.TargetsTap():
		return "tap:" + target
	default:
		return target
	}
}
