package naming

import "fmt"

func Workload(node string) string {
	return node
}

func Service(node string) string {
	return node
}

func StorageClaim(node string) string {
	return fmt.Sprintf("%s-data", node)
}

func ConfigBundle(node string) string {
	return fmt.Sprintf("%s-config", node)
}

func Autoscaler(node string) string {
	return fmt.Sprintf("%s-hpa", node)
}
