package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	v1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"
)

const configMapHostsfileName = "hosts"

type ConfigMapHostsfilePersister struct {
	namespace       string
	name            string
	configMapClient v1.ConfigMapInterface
}

func NewConfigMapHostsfilePersister(namespace, name string) (*ConfigMapHostsfilePersister, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("error creating in-cluster config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("error creating Kubernetes client: %w", err)
	}

	return NewConfigMapHostsfilePersisterForClient(clientset, namespace, name), nil
}

func NewConfigMapHostsfilePersisterForClient(clientset kubernetes.Interface, namespace, name string) *ConfigMapHostsfilePersister {
	return &ConfigMapHostsfilePersister{
		namespace:       namespace,
		name:            name,
		configMapClient: clientset.CoreV1().ConfigMaps(namespace),
	}
}

// Read treats a missing ConfigMap as an empty hosts file; it is created on
// the first write.
func (p *ConfigMapHostsfilePersister) Read(ctx context.Context) (string, error) {
	cm, err := p.configMapClient.Get(ctx, p.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading ConfigMap %s/%s: %w", p.namespace, p.name, err)
	}

	contents, ok := cm.Data[configMapHostsfileName]
	if !ok {
		return "", fmt.Errorf("ConfigMap %s/%s does not contain key %s", p.namespace, p.name, configMapHostsfileName)
	}

	return contents, nil
}

func (p *ConfigMapHostsfilePersister) Write(ctx context.Context, contents string) error {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.name,
			Namespace: p.namespace,
		},
		Data: map[string]string{
			configMapHostsfileName: contents,
		},
	}

	_, err := p.configMapClient.Update(ctx, cm, metav1.UpdateOptions{})
	if err == nil {
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("couldn't update ConfigMap %s/%s: %w", p.namespace, p.name, err)
	}

	log.Infof("ConfigMap %s/%s not found, creating it", p.namespace, p.name)
	_, err = p.configMapClient.Create(ctx, cm, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("couldn't create ConfigMap %s/%s: %w", p.namespace, p.name, err)
	}
	log.Infof("Created ConfigMap %s/%s successfully", p.namespace, p.name)

	return nil
}
