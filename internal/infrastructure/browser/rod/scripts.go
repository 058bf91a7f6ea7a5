package rod

// locateFn mirrors the fill lookup order. id and name lookups only match
// form controls; a selector may match anything.
const locateFn = `function locate(by, key, form, index) {
	const controls = 'input, select, textarea';
	switch (by) {
	case 'id':
		return Array.from(document.querySelectorAll(controls)).find(e => e.id === key) || null;
	case 'name':
		return Array.from(document.querySelectorAll(controls)).find(e => e.getAttribute('name') === key) || null;
	case 'position': {
		let list = [];
		if (form < 0) {
			list = Array.from(document.querySelectorAll(controls)).filter(e => !e.closest('form'));
		} else {
			const f = document.querySelectorAll('form')[form];
			if (f) list = Array.from(f.querySelectorAll(controls));
		}
		return list[index] || null;
	}
	case 'selector':
		return document.querySelector(key);
	}
	return null;
}`

const existsJS = `(by, key, form, index) => {
	` + locateFn + `
	return locate(by, key, form, index) !== null;
}`

const assignJS = `(by, key, form, index, value) => {
	` + locateFn + `
	let el = locate(by, key, form, index);
	if (!el) return 'not_found';

	const tag = el.tagName.toLowerCase();
	const type = (el.getAttribute('type') || '').toLowerCase();
	const truthy = ['true', 'on', 'yes', '1', 'ja'].includes(String(value).trim().toLowerCase());
	if (tag === 'input' && type === 'radio') {
		let group = [el];
		if (el.name) {
			const scope = el.form || document;
			group = Array.from(scope.querySelectorAll('input')).filter(r =>
				r.type === 'radio' && r.name === el.name && (el.form || !r.form));
		}
		let target = group.find(r => r.value === value);
		if (!target && group.length === 1 && truthy) target = el;
		if (!target) return 'no option "' + value + '"';
		target.checked = true;
		el = target;
	} else if (tag === 'input' && type === 'checkbox') {
		el.checked = truthy || value === el.value;
	} else if (tag === 'select') {
		const opt = Array.from(el.options).find(o => o.value === value);
		if (!opt) return 'no option "' + value + '"';
		el.value = value;
	} else if (tag === 'input' || tag === 'textarea') {
		el.value = value;
	} else {
		return 'element <' + tag + '> is not a form control';
	}

	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return '';
}`

// snapshotJS serializes a clone of the document with live control state
// written into attributes. Password values are dropped from the clone.
const snapshotJS = `() => {
	const controls = 'input, select, textarea';
	const root = document.documentElement.cloneNode(true);
	const live = document.documentElement.querySelectorAll(controls);
	const copy = root.querySelectorAll(controls);

	live.forEach((el, i) => {
		const c = copy[i];
		if (!c) return;
		const tag = el.tagName.toLowerCase();
		const type = (el.getAttribute('type') || '').toLowerCase();
		if (tag === 'input' && type === 'password') {
			c.removeAttribute('value');
		} else if (tag === 'input' && (type === 'checkbox' || type === 'radio')) {
			if (el.checked) c.setAttribute('checked', 'checked'); else c.removeAttribute('checked');
		} else if (tag === 'input') {
			c.setAttribute('value', el.value);
		} else if (tag === 'textarea') {
			c.textContent = el.value;
		} else if (tag === 'select') {
			Array.from(c.options).forEach((o, j) => {
				if (el.options[j] && el.options[j].selected) o.setAttribute('selected', 'selected');
				else o.removeAttribute('selected');
			});
		}
	});

	return '<!DOCTYPE html>' + root.outerHTML;
}`
